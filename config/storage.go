package config

// R2Config points at the Cloudflare R2 bucket holding listing photos.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// PublicURL is the bucket's public origin; photo references are built
	// from it and mapped back to keys on delete.
	PublicURL string
	Region    string
}

func GetR2Config() *R2Config {
	return &R2Config{
		AccountID:       getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		AccessKeyID:     getEnv("CLOUDFLARE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("CLOUDFLARE_SECRET_ACCESS_KEY", ""),
		BucketName:      getEnv("CLOUDFLARE_BUCKET_NAME", ""),
		PublicURL:       getEnv("CLOUDFLARE_PUBLIC_URL", ""),
		Region:          getEnv("CLOUDFLARE_REGION", "auto"),
	}
}

// Enabled reports whether presigned uploads can be issued.
func (r *R2Config) Enabled() bool {
	return r != nil && r.AccountID != "" && r.BucketName != "" && r.AccessKeyID != "" && r.SecretAccessKey != ""
}
