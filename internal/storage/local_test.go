package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"go-taskhub/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	key := storage.NewObjectKey(uuid.New(), "report.pdf")

	assert.NoError(t, store.Upload(ctx, key, strings.NewReader("contents")))

	rc, size, err := store.Download(ctx, key)
	assert.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, "contents", string(data))
	assert.Equal(t, int64(len("contents")), size)

	assert.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Download(ctx, key)
	assert.Error(t, err)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "/etc/passwd", "a/../../b", "."} {
		err := store.Upload(ctx, key, strings.NewReader("x"))
		assert.Error(t, err, key)
	}
}

func TestNewObjectKey(t *testing.T) {
	companyID := uuid.New()

	key := storage.NewObjectKey(companyID, "../../sneaky.txt")

	assert.Equal(t, companyID.String(), storage.KeyCompanyPrefix(key))
	assert.NotContains(t, key, "..")
	assert.True(t, strings.HasSuffix(key, "sneaky.txt"))
}
