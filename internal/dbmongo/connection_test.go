package dbmongo

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"jamsocial/internal/common"
)

func TestGetPublicURL(t *testing.T) {
	store := &ObjectStore{baseURL: "http://media.local:8080"}

	assert.Equal(t, "http://media.local:8080/object/public/avatars/user_7.jpg",
		store.GetPublicURL("avatars", "user_7.jpg"))
	assert.Equal(t, "http://media.local:8080/object/public/post-media-bucket/7/my%20clip.mp4",
		store.GetPublicURL("post-media-bucket", "7/my clip.mp4"))
}

func TestEscapePath_KeepsSeparators(t *testing.T) {
	assert.Equal(t, "42/a%3Fb.jpg", escapePath("42/a?b.jpg"))
	assert.Equal(t, "user_1.jpg", escapePath("user_1.jpg"))
}

func TestSignedURLShape(t *testing.T) {
	// CreateSignedURL needs a live bucket for the existence check, so this
	// covers the token it embeds instead.
	signer := common.NewObjectSigner("secret")
	token, err := signer.Sign("post-media-bucket", "7/a.jpg", time.Minute)
	require.NoError(t, err)

	raw := "http://m/object/sign/post-media-bucket/7/a.jpg?token=" + url.QueryEscape(token)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(u.Path, "/object/sign/"))
	assert.NoError(t, signer.Verify(u.Query().Get("token"), "post-media-bucket", "7/a.jpg"))
}

func TestGetStringFromMap(t *testing.T) {
	m := bson.M{"content_type": "image/jpeg", "size": 12}

	assert.Equal(t, "image/jpeg", getStringFromMap(m, "content_type"))
	assert.Equal(t, "", getStringFromMap(m, "size"))
	assert.Equal(t, "", getStringFromMap(m, "missing"))
	assert.Equal(t, "", getStringFromMap(nil, "content_type"))
}
