package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"campusmart/pkg/config"
	"campusmart/pkg/logger"
)

// Clients bundles what the server needs from the Firebase project.
type Clients struct {
	Firestore *firestore.Client
	Auth      *FirebaseAuthClient
}

func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}

// PingFirestore reads at most one document to prove the database answers.
func (c *Clients) PingFirestore(ctx context.Context) error {
	if c.Firestore == nil {
		return fmt.Errorf("firestore client not initialised")
	}
	_, err := c.Firestore.Collection("conversations").Limit(1).Documents(ctx).Next()
	if err == iterator.Done {
		return nil
	}
	return err
}

// credentials prefers inline JSON (production) over a file path (local
// development). With neither set, application default credentials or the
// emulators are used.
func credentials(cfg *config.Config) ([]option.ClientOption, error) {
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))}, nil
	}

	if cfg.FirebaseServiceAccountPath != "" {
		if _, err := os.Stat(cfg.FirebaseServiceAccountPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account file does not exist: %s", cfg.FirebaseServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)}, nil
	}

	logger.Warn("No Firebase service account configured, using application default credentials")
	return nil, nil
}

// NewClients initialises the Firebase app and opens the clients selected by cfg.
// Firestore is only opened for the firestore store driver, Auth only for the
// firebase auth provider.
func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	opts, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}

	clients := &Clients{}

	if cfg.StoreDriver == config.StoreFirestore {
		clients.Firestore, err = firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
	}

	if cfg.AuthProvider == config.AuthFirebase {
		authClient, err := app.Auth(ctx)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("initialize firebase auth: %w", err)
		}
		clients.Auth = NewFirebaseAuthClient(authClient)
	}

	return clients, nil
}
