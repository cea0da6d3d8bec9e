package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pscheid92/buzzbot/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// DeliveryDeduper remembers delivered (subscription, post URL) pairs for ttl.
type DeliveryDeduper struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewDeliveryDeduper(rdb *goredis.Client, ttl time.Duration) *DeliveryDeduper {
	return &DeliveryDeduper{rdb: rdb, ttl: ttl}
}

// FirstDelivery claims the pair with SET NX; a nil reply means another
// delivery already claimed it.
func (d *DeliveryDeduper) FirstDelivery(ctx context.Context, id domain.SubscriptionID, postURL string) (bool, error) {
	args := goredis.SetArgs{TTL: d.ttl, Mode: "NX"}
	_, err := d.rdb.SetArgs(ctx, deliveryKey(id, postURL), "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim delivery: %w", err)
	}
	return true, nil
}

// deliveryKey hashes the URL to keep keys short and free of separators.
func deliveryKey(id domain.SubscriptionID, postURL string) string {
	sum := sha256.Sum256([]byte(postURL))
	return "delivered:" + strconv.FormatInt(int64(id), 10) + ":" + hex.EncodeToString(sum[:16])
}
