package main

import (
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/store"
)

// newStoreClient builds a store.Client for bucket. Region, credentials, and
// endpoint resolution are left to the AWS SDK's default provider chain and
// shared configuration files, exactly as distribution's s3-aws driver
// defers to session.NewSession rather than baycat inventing its own
// credential handling (spec §1, out of scope).
func newStoreClient(bucket string, logger *logging.Logger) (store.Client, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errorf("unable to create AWS session: %s", err)
	}
	return store.NewS3Client(sess, bucket, logger), nil
}
