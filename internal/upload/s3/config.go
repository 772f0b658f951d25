package s3

// Config holds the object-store connection settings.
type Config struct {
	// Bucket receives every upload.
	Bucket string
	// Region is required by the SDK even for S3-compatible stores.
	Region string
	// Endpoint points at an S3-compatible service (MinIO, R2...).
	// Empty means AWS itself. When set, path-style addressing is used.
	Endpoint string
	// AccessKey and SecretKey are static credentials.
	AccessKey string
	SecretKey string
	// PublicBaseURL, when set, is the prefix of every returned locator
	// (a CDN or a public bucket domain).
	PublicBaseURL string
	// KeyPrefix is the first path segment of every object key.
	KeyPrefix string
}

// DefaultConfig provides the defaults used when the environment is silent.
func DefaultConfig() Config {
	return Config{
		Region:    "us-east-1",
		KeyPrefix: "reports",
	}
}
