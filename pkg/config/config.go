package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	PostgresConnStr         string
	MongoURI                string
	MongoDBName             string
	JWTSecret               string
	CampusEmailDomain       string
	WSAllowedOrigin         string
	FirebaseCredentialsPath string
	StorageType             string
	StorageBasePath         string
	StorageBaseURL          string
	StorageBucket           string
	StorageRegion           string
	StorageEndpoint         string
	StorageAccessKey        string
	StorageSecretKey        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDBName:             getEnv("MONGO_DB_NAME", "campuslink"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		CampusEmailDomain:       getEnv("CAMPUS_EMAIL_DOMAIN", ""),
		WSAllowedOrigin:         getEnv("WS_ALLOWED_ORIGIN", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		StorageType:             getEnv("STORAGE_TYPE", "local"),
		StorageBasePath:         getEnv("STORAGE_BASE_PATH", "./uploads"),
		StorageBaseURL:          getEnv("STORAGE_BASE_URL", "/uploads"),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		StorageRegion:           getEnv("STORAGE_REGION", "us-east-1"),
		StorageEndpoint:         getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey:        getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:        getEnv("STORAGE_SECRET_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
