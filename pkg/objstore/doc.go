/*

Package objstore is the boundary between the connector and the object store that actually holds the files. The connector
only needs four operations from a store: a probe that confirms an object exists and reports its version, a ranged read
pinned to that version, a streamed write, and one page of a delimited key listing. Keeping the surface this small lets
the S3 implementation and the local directory implementation behave the same under the connector's tests.

Limitations and Design Considerations

Errors - every error leaving a Store is classified with a connerr.Kind. Store specific codes (S3 error codes, os errors)
never escape this package, so the RPC layer can decide on wire codes without knowing which store it talks to.

Versions - a probe returns the version the store reports for the object. Reads issued with that version fail instead
of returning bytes of a newer object. Stores without versioning return an empty version and reads are unpinned.

Multipart uploads - the S3 store splits uploads into parts of a fixed size and keeps a bounded number of them in flight,
so memory is bounded by part size times concurrency regardless of object size. The body is pulled, never pushed, which
is what lets a slow store stall the RPC stream feeding it.

Listing - a page holds at most one store response. Keys below a delimiter are reported as common prefixes and not as
objects. Pagination across pages belongs to the caller (see package listing).

Timeouts - stores do not impose timeouts of their own; callers bound each operation with the context they pass in, and
an expired context is reported as connerr.Timeout.
*/
package objstore
