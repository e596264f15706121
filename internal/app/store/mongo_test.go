package store_test

import (
	"testing"

	"github.com/dalemusser/cmsdesk/internal/app/store/storetest"
	"github.com/dalemusser/cmsdesk/internal/testutil"
)

func TestMongoBackend(t *testing.T) {
	storetest.Run(t, testutil.SetupMongoBackend)
}
