// Handle the "connector client" command. This command exists solely to contain
// subcommands that call a running connector.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/pkg/errors"
	pb "github.com/serverlessresearch/s3connector/pkg/connectorpb"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var clientServer string
var clientTimeout time.Duration

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Call a running connector",
	Long:  `Commands for exercising a connector over gRPC.`,

	// Client calls don't need a store, so skip the pre-run and post-run
	// declared in root.go
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
}

// withClient dials the connector and hands a client to fn.
func withClient(fn func(ctx context.Context, client pb.HostedDriveClient) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, clientServer, grpc.WithInsecure(), grpc.WithBlock())
	if err != nil {
		return errors.Wrap(err, "fail to dial "+clientServer)
	}
	defer conn.Close()
	return fn(ctx, pb.NewHostedDriveClient(conn))
}

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Show the connector's capabilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client pb.HostedDriveClient) error {
			caps, err := client.GetCapabilities(ctx, &empty.Empty{})
			if err != nil {
				return err
			}
			fmt.Printf("supportsRandomRead: %v\n", caps.GetSupportsRandomRead())
			return nil
		})
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [PREFIX]",
	Short: "List files below a prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		return withClient(func(ctx context.Context, client pb.HostedDriveClient) error {
			stream, err := client.List(ctx, &pb.ListRequest{PathPattern: prefix})
			if err != nil {
				return err
			}
			for {
				item, err := stream.Recv()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Printf("%12d  %s  %s\n", item.GetMeta().GetSize(),
					time.Unix(item.GetMeta().GetLastUpdated(), 0).UTC().Format(time.RFC3339), item.GetName())
			}
		})
	},
}

var statCmd = &cobra.Command{
	Use:   "stat NAME",
	Short: "Show the size and modification time of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client pb.HostedDriveClient) error {
			meta, err := client.Metadata(ctx, &pb.MetadataRequest{FileName: args[0]})
			if err != nil {
				return err
			}
			fmt.Printf("size: %d\nlastUpdated: %s\n", meta.GetSize(),
				time.Unix(meta.GetLastUpdated(), 0).UTC().Format(time.RFC3339))
			return nil
		})
	},
}

var getOffset, getLength int64
var getOut string

var getCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Download a file or a byte range of it",
	Long: `Download a byte range of a file. Without --length the rest of the
file after --offset is downloaded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := io.Writer(os.Stdout)
		if getOut != "" {
			f, err := os.Create(getOut)
			if err != nil {
				return errors.Wrap(err, "Failed to create "+getOut)
			}
			defer f.Close()
			out = f
		}

		return withClient(func(ctx context.Context, client pb.HostedDriveClient) error {
			length := getLength
			if length <= 0 {
				meta, err := client.Metadata(ctx, &pb.MetadataRequest{FileName: args[0]})
				if err != nil {
					return err
				}
				length = meta.GetSize() - getOffset
				if length <= 0 {
					return nil
				}
			}
			n, err := download(ctx, client, args[0], getOffset, length, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "received %d bytes\n", n)
			return nil
		})
	},
}

func download(ctx context.Context, client pb.HostedDriveClient, name string, offset, length int64, out io.Writer) (int64, error) {
	stream, err := client.Download(ctx)
	if err != nil {
		return 0, err
	}
	if err := stream.Send(&pb.DownloadRequest{File: &pb.FileReference{Name: name}}); err != nil {
		return 0, err
	}
	if _, err := stream.Recv(); err != nil {
		return 0, err
	}
	if err := stream.Send(&pb.DownloadRequest{Chunk: &pb.ByteRange{Start: offset, Length: length}}); err != nil {
		return 0, err
	}

	var total int64
	for {
		resp, err := stream.Recv()
		if err != nil {
			return total, err
		}
		c := resp.GetChunk()
		if _, err := out.Write(c.GetData()); err != nil {
			return total, err
		}
		total += int64(len(c.GetData()))
		if c.GetLast() {
			break
		}
	}
	return total, stream.CloseSend()
}

var putPartSize int

var putCmd = &cobra.Command{
	Use:   "put LOCAL_FILE NAME",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if putPartSize <= 0 {
			return errors.Errorf("--part-size must be positive, got %d", putPartSize)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "Failed to open "+args[0])
		}
		defer f.Close()

		return withClient(func(ctx context.Context, client pb.HostedDriveClient) error {
			stream, err := client.Upload(ctx)
			if err != nil {
				return err
			}
			if err := stream.Send(&pb.UploadRequest{File: &pb.FileReference{Name: args[1]}}); err != nil {
				return err
			}
			buf := make([]byte, putPartSize)
			for {
				n, rerr := io.ReadFull(f, buf)
				if n > 0 {
					if err := stream.Send(&pb.UploadRequest{Chunk: &pb.Chunk{Data: buf[:n]}}); err != nil {
						break
					}
				}
				if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
					break
				}
				if rerr != nil {
					return errors.Wrap(rerr, "Failed to read "+args[0])
				}
			}
			// a failed Send surfaces here with the server's status
			_, err = stream.CloseAndRecv()
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.PersistentFlags().StringVar(&clientServer, "server", "127.0.0.1:50051", "connector address in the format of host:port")
	clientCmd.PersistentFlags().DurationVar(&clientTimeout, "timeout", 10*time.Minute, "deadline for the whole call")

	clientCmd.AddCommand(capsCmd, lsCmd, statCmd, getCmd, putCmd)

	getCmd.Flags().Int64Var(&getOffset, "offset", 0, "first byte to download")
	getCmd.Flags().Int64Var(&getLength, "length", 0, "number of bytes to download (default is the rest of the file)")
	getCmd.Flags().StringVarP(&getOut, "out", "o", "", "write to this file instead of stdout")

	putCmd.Flags().IntVar(&putPartSize, "part-size", 256*1024, "bytes per upload chunk")
}
