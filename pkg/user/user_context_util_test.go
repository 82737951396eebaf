package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithUser(t *testing.T) {
	u := User{Id: 7, Uid: "uid-7", Settings: Settings{Timezone: "UTC"}}
	ctx := WithUser(context.Background(), u)

	current, err := CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, current)

	id, err := CurrentId(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = CurrentId(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)
}
