package userRepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestTopTagsQuery(t *testing.T) {
	filter, opts := topTagsQuery("u1", 10)
	assert.Equal(t, bson.M{"userId": "u1"}, filter)
	if assert.NotNil(t, opts.Limit) {
		assert.EqualValues(t, 10, *opts.Limit)
	}
	assert.Equal(t, bson.D{{Key: "weight", Value: -1}, {Key: "tag", Value: 1}}, opts.Sort)
}
