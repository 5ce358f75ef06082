package storage

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/firebase"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/storage"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// SetupReceiptBucket creates the bucket receipts are uploaded to and links it to Firebase so
// the clients can read them through download tokens.
func SetupReceiptBucket(ctx *pulumi.Context, prov *gcp.Provider) (*storage.Bucket, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	svc, err := projects.NewService(ctx, "firebaseStorage", &projects.ServiceArgs{
		Service: pulumi.String("firebasestorage.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	bucket, err := storage.NewBucket(ctx, "receiptBucket", &storage.BucketArgs{
		Name:                     pulumi.String(fmt.Sprintf("%s-receipts", projectID)),
		Location:                 pulumi.String(region),
		UniformBucketLevelAccess: pulumi.Bool(true),
		PublicAccessPrevention:   pulumi.String("enforced"),
		Cors: storage.BucketCorArray{
			&storage.BucketCorArgs{
				Methods:         pulumi.StringArray{pulumi.String("GET")},
				Origins:         pulumi.StringArray{pulumi.String("*")},
				MaxAgeSeconds:   pulumi.Int(3600),
				ResponseHeaders: pulumi.StringArray{pulumi.String("Content-Type")},
			},
		},
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	_, err = firebase.NewStorageBucket(ctx, "receiptFirebaseBucket", &firebase.StorageBucketArgs{
		Project:  pulumi.String(projectID),
		BucketId: bucket.Name,
	},
		pulumi.Provider(prov),
		pulumi.DependsOn([]pulumi.Resource{svc}),
	)
	if err != nil {
		return nil, err
	}

	return bucket, nil
}

// GrantObjectAdmin lets the api service account write and delete receipts.
func GrantObjectAdmin(ctx *pulumi.Context, prov *gcp.Provider, bucket *storage.Bucket, apiSA *serviceaccount.Account) error {
	_, err := storage.NewBucketIAMMember(ctx, "receiptBucketAccess", &storage.BucketIAMMemberArgs{
		Bucket: bucket.Name,
		Role:   pulumi.String("roles/storage.objectAdmin"),
		Member: apiSA.Email.ApplyT(func(email string) string {
			return fmt.Sprintf("serviceAccount:%s", email)
		}).(pulumi.StringOutput),
	},
		pulumi.Provider(prov),
	)
	return err
}
