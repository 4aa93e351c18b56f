package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisVisitRepository_AppendAndList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRedisVisitRepository(client, "test:visits")
	ctx := context.Background()
	at := time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, sampleVisit("a1", at)))
	require.NoError(t, repo.Append(ctx, sampleVisit("a2", at.Add(time.Second))))

	visits, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "a1", visits[0].ID)
	assert.Equal(t, "a2", visits[1].ID)
	assert.Equal(t, []string{"en-AU", "en"}, visits[0].Languages)
	assert.Equal(t, "203.0.113.9", visits[0].IPAddress)
	assert.True(t, visits[0].ServerTimestamp.Equal(at))
}

func TestRedisVisitRepository_EmptyList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	visits, err := NewRedisVisitRepository(client, "test:visits").ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestRedisVisitRepository_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := mr.RPush("test:visits", "{not json")
	require.NoError(t, err)

	_, err = NewRedisVisitRepository(client, "test:visits").ListAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode visit")
}
