package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taniconnect_back_end/internal/config"
)

// Connections holds every back end client opened at start-up. Optional
// stores (Scylla, Elastic, MinIO) are nil when not configured.
type Connections struct {
	Mongo   *mongo.Database
	Redis   *redis.Client
	Scylla  *gocql.Session
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// Connect opens the required stores and fails fast when one is unreachable.
func Connect(ctx context.Context, cfg config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}

	db, err := connectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	conns.Mongo = db
	log.Println("✅ Connected to MongoDB")

	conns.Redis, err = connectRedis(ctx, cfg.RedisHost, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}
	log.Println("✅ Connected to Redis")

	if len(cfg.ScyllaHosts) > 0 && cfg.ScyllaKeyspace != "" {
		conns.Scylla, err = connectScylla(cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("✅ ScyllaDB session for keyspace '%s'", cfg.ScyllaKeyspace)
	} else {
		log.Println("⚠️ SCYLLA_HOSTS not set, payment audit trail disabled")
	}

	if cfg.ElasticURL != "" {
		conns.Elastic, err = connectElastic(cfg)
		if err != nil {
			return nil, err
		}
		log.Println("✅ Connected to Elasticsearch")
	} else {
		log.Println("⚠️ ELASTIC_URL not set, order search disabled")
	}

	if cfg.MinioEndpoint != "" {
		conns.MinIO, err = connectMinIO(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Println("✅ Connected to MinIO:", cfg.MinioEndpoint)
	} else {
		log.Println("⚠️ MINIO_ENDPOINT not set, notification archive disabled")
	}

	return conns, nil
}

// Close releases every open client.
func (c *Connections) Close(ctx context.Context) {
	if c.Scylla != nil {
		c.Scylla.Close()
		log.Println("🔌 ScyllaDB session closed")
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️ Redis close: %v", err)
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Client().Disconnect(ctx); err != nil {
			log.Printf("⚠️ MongoDB disconnect: %v", err)
		}
	}
}

func connectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func connectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

func connectScylla(cfg config.Config) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 4
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.ScyllaUsername != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create ScyllaDB session for %s: %w", cfg.ScyllaKeyspace, err)
	}
	return session, nil
}

func connectElastic(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to reach Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	return client, nil
}

func connectMinIO(ctx context.Context, cfg config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check MinIO bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket %s: %w", cfg.MinioBucket, err)
		}
		log.Println("🪣 Bucket created:", cfg.MinioBucket)
	}

	return client, nil
}
