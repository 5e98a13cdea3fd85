// Package connmgr assembles a connector from configuration: it reads the
// settings, builds the logger and the object store, and runs the gRPC server.
package connmgr

import (
	"net"
	"os"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/serverlessresearch/s3connector/pkg/connector"
	pb "github.com/serverlessresearch/s3connector/pkg/connectorpb"
	"github.com/serverlessresearch/s3connector/pkg/objstore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
)

const envPrefix = "CORE_S3_FILE_CONNECTOR_"

type Manager struct {
	Cfg     *viper.Viper
	Logger  logrus.FieldLogger
	Store   objstore.Store
	Service *connector.Service

	server *grpc.Server
}

// NewManager builds a connector. Recognized options:
//   config-file: path of a config file (default is ./configs/connector.*, which may be absent)
//   env-file: dotenv file to load into the environment (default is ./.env, which may be absent)
//   logger: a logrus.FieldLogger to use instead of one built from log.level
//   store: an objstore.Store to use instead of one built from store.backend
func NewManager(userCfg map[string]interface{}) (*Manager, error) {
	mgr := &Manager{}

	envFile := ".env"
	if raw, ok := userCfg["env-file"]; ok {
		path, ok := raw.(string)
		if !ok {
			return nil, errors.New("option 'env-file' must be of type string")
		}
		envFile = path
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "Failed to load "+envFile)
	}

	var err error
	if raw, ok := userCfg["config-file"]; ok {
		cfgPath, ok := raw.(string)
		if !ok {
			return nil, errors.New("option 'config-file' must be of type string")
		}
		err = mgr.initConfig(&cfgPath)
	} else {
		err = mgr.initConfig(nil)
	}
	if err != nil {
		return nil, err
	}

	if raw, ok := userCfg["logger"]; ok {
		logger, ok := raw.(logrus.FieldLogger)
		if !ok {
			return nil, errors.New("option 'logger' must satisfy logrus.FieldLogger")
		}
		mgr.Logger = logger
	} else if mgr.Logger, err = mgr.newLogger(); err != nil {
		return nil, err
	}

	if raw, ok := userCfg["store"]; ok {
		store, ok := raw.(objstore.Store)
		if !ok {
			return nil, errors.New("option 'store' must satisfy objstore.Store")
		}
		mgr.Store = store
	} else if err := mgr.initStore(); err != nil {
		return nil, err
	}

	mgr.Service = connector.NewService(mgr.Store, mgr.ServiceConfig(), mgr.Logger.WithField("module", "connector"))
	mgr.server = grpc.NewServer(grpc.MaxRecvMsgSize(int(mgr.Cfg.GetSizeInBytes("grpc.max-recv-msg-size"))))
	pb.RegisterHostedDriveServer(mgr.server, mgr.Service)
	return mgr, nil
}

func (self *Manager) initConfig(cfgPath *string) error {
	// Private viper context so importers keep their own global one.
	self.Cfg = viper.New()

	self.Cfg.SetDefault("listen", "0.0.0.0:50051")
	self.Cfg.BindEnv("listen", envPrefix+"LISTEN")

	self.Cfg.SetDefault("log.level", "info")
	self.Cfg.BindEnv("log.level", envPrefix+"LOG_LEVEL")

	self.Cfg.SetDefault("store.backend", "s3")
	self.Cfg.BindEnv("store.backend", envPrefix+"BACKEND")
	self.Cfg.SetDefault("store.dir", "/tmp/objfiles")
	self.Cfg.BindEnv("store.dir", envPrefix+"DIR")
	self.Cfg.SetDefault("store.operation-timeout", "30s")
	self.Cfg.SetDefault("store.transfer-timeout", "0s")

	// Order of precedence: ENV, config file, default
	self.Cfg.BindEnv("s3.bucket", envPrefix+"BUCKET_NAME")
	self.Cfg.BindEnv("s3.access-key-id", envPrefix+"BUCKET_ACCESS_KEY_ID")
	self.Cfg.BindEnv("s3.secret-access-key", envPrefix+"BUCKET_SECRET_ACCESS_KEY")
	self.Cfg.SetDefault("s3.region", "us-east-1")
	self.Cfg.BindEnv("s3.region", envPrefix+"BUCKET_REGION")
	self.Cfg.BindEnv("s3.endpoint", envPrefix+"ENDPOINT")

	self.Cfg.SetDefault("upload.part-size", objstore.DefaultPartSize)
	self.Cfg.SetDefault("upload.concurrency", objstore.DefaultConcurrency)
	self.Cfg.SetDefault("download.segment-size", connector.DefaultConfig().SegmentSize)
	self.Cfg.SetDefault("download.mask-read-failures", true)
	self.Cfg.SetDefault("errors.detailed-codes", false)
	self.Cfg.SetDefault("grpc.max-recv-msg-size", 64*1024*1024)

	if cfgPath != nil {
		path, err := homedir.Expand(*cfgPath)
		if err != nil {
			return errors.Wrap(err, "Failed to resolve config path")
		}
		self.Cfg.SetConfigFile(path)
	} else {
		// default search path is ./configs/connector.* (* can be json, yaml, etc)
		self.Cfg.AddConfigPath("./configs")
		self.Cfg.SetConfigName("connector")
	}

	if err := self.Cfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgPath == nil {
			return nil
		}
		return errors.Wrap(err, "Failed to load config")
	}
	return nil
}

func (self *Manager) newLogger() (logrus.FieldLogger, error) {
	level, err := logrus.ParseLevel(self.Cfg.GetString("log.level"))
	if err != nil {
		return nil, errors.Wrap(err, "Invalid log.level")
	}
	logger := logrus.New()
	logger.SetLevel(level)
	return logger, nil
}

func (self *Manager) initStore() error {
	backend := self.Cfg.GetString("store.backend")
	logger := self.Logger.WithField("module", "store."+backend)

	var err error
	switch backend {
	case "s3":
		if self.Cfg.GetString("s3.bucket") == "" {
			return errors.New("s3.bucket (" + envPrefix + "BUCKET_NAME) is required for the s3 backend")
		}
		self.Store, err = objstore.NewS3Store(objstore.S3Config{
			Bucket:          self.Cfg.GetString("s3.bucket"),
			Region:          self.Cfg.GetString("s3.region"),
			AccessKeyID:     self.Cfg.GetString("s3.access-key-id"),
			SecretAccessKey: self.Cfg.GetString("s3.secret-access-key"),
			Endpoint:        self.Cfg.GetString("s3.endpoint"),
			PartSize:        int64(self.Cfg.GetSizeInBytes("upload.part-size")),
			Concurrency:     self.Cfg.GetInt("upload.concurrency"),
		}, logger)
	case "dir":
		var root string
		if root, err = homedir.Expand(self.Cfg.GetString("store.dir")); err != nil {
			break
		}
		self.Store, err = objstore.NewDirStore(root, logger)
	default:
		return errors.New("Unrecognized store backend: " + backend)
	}
	if err != nil {
		return errors.Wrap(err, "Failed to initialize store "+backend)
	}
	return nil
}

// ServiceConfig returns the connector settings from the configuration.
func (self *Manager) ServiceConfig() connector.Config {
	return connector.Config{
		SegmentSize:      int(self.Cfg.GetSizeInBytes("download.segment-size")),
		MaskReadFailures: self.Cfg.GetBool("download.mask-read-failures"),
		DetailedCodes:    self.Cfg.GetBool("errors.detailed-codes"),
		OperationTimeout: self.Cfg.GetDuration("store.operation-timeout"),
		TransferTimeout:  self.Cfg.GetDuration("store.transfer-timeout"),
	}
}

// Serve answers calls on lis until the server is stopped.
func (self *Manager) Serve(lis net.Listener) error {
	self.Logger.WithField("address", lis.Addr().String()).Info("connector listening")
	return self.server.Serve(lis)
}

// ListenAndServe serves on the configured listen address.
func (self *Manager) ListenAndServe() error {
	lis, err := net.Listen("tcp", self.Cfg.GetString("listen"))
	if err != nil {
		return errors.Wrap(err, "Failed to listen")
	}
	return self.Serve(lis)
}

// GracefulStop lets running calls finish before the server exits.
func (self *Manager) GracefulStop() {
	self.Logger.Info("shutting down")
	self.server.GracefulStop()
}

func (self *Manager) Destroy() {
	self.server.Stop()
}
