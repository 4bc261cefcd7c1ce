// Command s3test exercises the S3 blob store against a real bucket or a
// MinIO instance. It is an operational smoke check, not part of the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/zala-app/content-engine/pkg/zalacontent"
	"github.com/zala-app/content-engine/pkg/zalacontent/storage/s3"
)

func main() {
	region := flag.String("region", "us-east-1", "AWS region")
	bucket := flag.String("bucket", "", "S3 bucket name")
	accessKey := flag.String("access-key", "", "AWS access key ID")
	secretKey := flag.String("secret-key", "", "AWS secret access key")
	endpoint := flag.String("endpoint", "", "Custom S3 endpoint (for MinIO, etc.)")
	usePathStyle := flag.Bool("use-path-style", false, "Use path-style addressing")
	presignDuration := flag.Int("presign-duration", 3600, "Duration in seconds for presigned URLs")
	createBucket := flag.Bool("create-bucket", false, "Create bucket if it doesn't exist")

	command := flag.String("command", "help", "Command to execute: upload, download, delete, meta, url, help")
	objectKey := flag.String("key", "", "Object key for operations")
	filePath := flag.String("file", "", "File path for upload/download")

	// MinIO shortcut
	useMinio := flag.Bool("use-minio", false, "Use MinIO defaults (endpoint, path-style, credentials)")
	minioEndpoint := flag.String("minio-endpoint", "http://localhost:9000", "MinIO server endpoint")

	flag.Parse()

	if *useMinio {
		*endpoint = *minioEndpoint
		*usePathStyle = true
		*createBucket = true
		if *accessKey == "" {
			*accessKey = "minioadmin"
		}
		if *secretKey == "" {
			*secretKey = "minioadmin"
		}
	}

	if *command == "help" || *command == "" {
		printHelp()
		return
	}
	if *bucket == "" {
		log.Fatal("Bucket name is required")
	}

	store, err := s3.New(s3.Config{
		Region:                 *region,
		Bucket:                 *bucket,
		AccessKeyID:            *accessKey,
		SecretAccessKey:        *secretKey,
		Endpoint:               *endpoint,
		UsePathStyle:           *usePathStyle,
		PresignDuration:        *presignDuration,
		CreateBucketIfNotExist: *createBucket,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 backend: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch *command {
	case "upload":
		runUpload(ctx, store, *objectKey, *filePath)
	case "download":
		runDownload(ctx, store, *objectKey, *filePath)
	case "delete":
		runDelete(ctx, store, *objectKey)
	case "meta":
		runMeta(ctx, store, *objectKey)
	case "url":
		runURL(ctx, store, *objectKey)
	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

func requireKey(objectKey string) {
	if objectKey == "" {
		log.Fatal("Object key is required (-key)")
	}
}

func runUpload(ctx context.Context, store zalacontent.BlobStore, objectKey, filePath string) {
	requireKey(objectKey)

	var reader io.Reader
	if filePath == "" {
		reader = strings.NewReader("s3test payload " + time.Now().UTC().Format(time.RFC3339))
	} else {
		file, err := os.Open(filePath)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", filePath, err)
		}
		defer file.Close()
		reader = file
	}

	if err := store.Upload(ctx, reader, zalacontent.UploadParams{ObjectKey: objectKey}); err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	fmt.Printf("Uploaded %s\n", objectKey)
}

func runDownload(ctx context.Context, store zalacontent.BlobStore, objectKey, filePath string) {
	requireKey(objectKey)

	rc, err := store.Download(ctx, objectKey)
	if err != nil {
		log.Fatalf("Download failed: %v", err)
	}
	defer rc.Close()

	var out io.Writer = os.Stdout
	if filePath != "" {
		file, err := os.Create(filePath)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", filePath, err)
		}
		defer file.Close()
		out = file
	}

	n, err := io.Copy(out, rc)
	if err != nil {
		log.Fatalf("Read failed: %v", err)
	}
	if filePath != "" {
		fmt.Printf("Downloaded %d bytes to %s\n", n, filePath)
	}
}

func runDelete(ctx context.Context, store zalacontent.BlobStore, objectKey string) {
	requireKey(objectKey)

	if err := store.Delete(ctx, objectKey); err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	fmt.Printf("Deleted %s\n", objectKey)
}

func runMeta(ctx context.Context, store zalacontent.BlobStore, objectKey string) {
	requireKey(objectKey)

	meta, err := store.GetObjectMeta(ctx, objectKey)
	if err != nil {
		log.Fatalf("Stat failed: %v", err)
	}
	fmt.Printf("Key:          %s\n", meta.Key)
	fmt.Printf("Size:         %d\n", meta.Size)
	fmt.Printf("Content-Type: %s\n", meta.ContentType)
	fmt.Printf("Updated:      %s\n", meta.UpdatedAt.Format(time.RFC3339))
	if meta.ETag != "" {
		fmt.Printf("ETag:         %s\n", meta.ETag)
	}
}

func runURL(ctx context.Context, store zalacontent.BlobStore, objectKey string) {
	requireKey(objectKey)

	url, err := store.GetDownloadURL(ctx, objectKey, "")
	if err != nil {
		log.Fatalf("Presign failed: %v", err)
	}
	fmt.Println(url)
}

func printHelp() {
	fmt.Println(`s3test - smoke check for the S3 blob store

Usage:
  s3test -bucket <name> -command <cmd> [options]

Commands:
  upload    Upload a file (or a generated payload) to -key
  download  Download -key to -file (or stdout)
  delete    Delete -key
  meta      Print object metadata for -key
  url       Print a presigned download URL for -key

MinIO:
  s3test -use-minio -bucket test -command upload -key demo/hello.txt`)
}
