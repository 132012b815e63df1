package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"urdf/internal/auth"
	"urdf/internal/db"
	"urdf/internal/lifecycle"
	"urdf/internal/server"
	"urdf/internal/storage"
	"urdf/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply the database schema before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(config)

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cCtx.Bool("migrate") {
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	applicationRepo := store.NewApplicationRepository(pool)
	roleRepo := store.NewRoleRepository(pool)
	documentRepo := store.NewDocumentRepository(pool)
	formsRepo := store.NewFormsRepository(pool)

	manager := lifecycle.New(logger, applicationRepo, roleRepo, documentRepo, config.ReferencePrefix)

	cognito := auth.NewCognito(cognitoidentityprovider.NewFromConfig(awsConfig), config.CognitoClientID)

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.CognitoIssuerURL)

	err = jwkCache.Register(context.Background(), jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register cognito jwks with cache: %w", err)
	}

	verifier := auth.NewTokenVerifier(jwkCache, jwksURL, config.CognitoIssuerURL, config.CognitoClientID)

	var documents *storage.DocumentStorage
	if config.S3BucketName != "" {
		documents = storage.NewDocumentStorage(s3.NewFromConfig(awsConfig), config.S3BucketName)
	} else {
		logger.Warn("S3_BUCKET_NAME is empty, document uploads are disabled")
	}

	// The server treats a nil interface as "uploads disabled", so a typed nil
	// pointer must not reach it.
	var srv *server.Service
	if documents != nil {
		srv, err = server.New(config, logger, manager, formsRepo, cognito, verifier, documents)
	} else {
		srv, err = server.New(config, logger, manager, formsRepo, cognito, verifier, nil)
	}
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
