package redis_test

import (
	"context"
	"encoding/json"
	"testing"

	"remit-backoffice/internal/adapter/storage/redis"
	"remit-backoffice/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "remit:events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := redis.NewEventPublisher(client, "remit:events")

	transfer, err := domain.NewTransfer("10000001", decimal.NewFromInt(1000000), domain.CurrencyIQD,
		"Ali Hassan", "Omar Khalid", "Basra", uuid.New(), "hash")
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, domain.NewTransferEvent(domain.EventTransferCreated, transfer)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event domain.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, domain.EventTransferCreated, event.Type)
	assert.Equal(t, transfer.ID, event.TransferID)
	assert.Equal(t, "10000001", event.TransferCode)
	assert.True(t, event.Amount.Equal(transfer.Amount))
}
