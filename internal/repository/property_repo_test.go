package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/propfeed/propfeed/internal/entity"
)

func TestFeedFindOptions_NewestFirst(t *testing.T) {
	opts := feedFindOptions(entity.PropertyFilter{Limit: 5, Offset: 10})

	assert.Equal(t, bson.M{"created_at": -1}, opts.Sort)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, int64(10), *opts.Skip)
}
