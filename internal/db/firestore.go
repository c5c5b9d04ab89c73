package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FirebaseConfig selects the project and credentials used to reach Firebase.
type FirebaseConfig struct {
	ProjectID string
	// CredentialsFile is a path to a service account key. Takes precedence over CredentialsJSONBase64.
	CredentialsFile       string
	CredentialsJSONBase64 string
}

// FirebaseClients are the clients built from one Firebase app.
type FirebaseClients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
}

// InitFirebase initializes the Firebase Admin SDK and returns its Firestore and Auth clients.
// With neither credentials option set, Application Default Credentials are used.
func InitFirebase(ctx context.Context, cfg FirebaseConfig, logger *zap.Logger) (*FirebaseClients, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		if _, err := os.Stat(cfg.CredentialsFile); os.IsNotExist(err) {
			logger.Warn("Credentials file does not exist, falling back to ADC resolution",
				zap.String("path", cfg.CredentialsFile))
		}
		logger.Info("Initializing Firebase with credentials file", zap.String("path", cfg.CredentialsFile))
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.CredentialsJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		logger.Info("Initializing Firebase with Base64 encoded service account JSON")
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	logger.Info("Firebase clients initialized", zap.String("project_id", cfg.ProjectID))
	return &FirebaseClients{Firestore: fs, Auth: authClient}, nil
}
