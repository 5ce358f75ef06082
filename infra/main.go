package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/ledger-backend/infra/cloudrun"
	"github.com/GregMSThompson/ledger-backend/infra/docker"
	"github.com/GregMSThompson/ledger-backend/infra/firestore"
	"github.com/GregMSThompson/ledger-backend/infra/identity"
	"github.com/GregMSThompson/ledger-backend/infra/provider"
	"github.com/GregMSThompson/ledger-backend/infra/storage"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity service to allow using firebase
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// enable firestore and create a database for the project
		err = firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// bucket for receipt uploads
		bucket, err := storage.SetupReceiptBucket(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}

		apiSA, err := cloudrun.SetupCloudRun(ctx, prov, bucket.Name, ident, repo)
		if err != nil {
			return err
		}

		if err := storage.GrantObjectAdmin(ctx, prov, bucket, apiSA); err != nil {
			return err
		}

		ctx.Export("receiptBucket", bucket.Name)
		return nil
	})
}
