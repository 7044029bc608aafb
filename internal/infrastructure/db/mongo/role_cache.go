package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

const roleCacheCollection = "role_cache"

// RoleCache keeps the last-known role of each subject in MongoDB, one
// document per subject keyed by _id.
type RoleCache struct {
	coll *mongo.Collection
}

func NewRoleCache(db *mongo.Database) *RoleCache {
	return &RoleCache{coll: db.Collection(roleCacheCollection)}
}

type cachedRole struct {
	Subject   string    `bson:"_id"`
	Role      string    `bson:"role"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (c *RoleCache) Get(ctx context.Context, subject string) (domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc cachedRole
	if err := c.coll.FindOne(ctx, bson.M{"_id": subject}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.RoleUnset, nil
		}
		return domain.RoleUnset, fmt.Errorf("find cached role: %w", err)
	}

	return doc.role()
}

// role parses the stored value; anything but a known role is an error.
func (d cachedRole) role() (domain.Role, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("cached role %q: %w", d.Role, err)
	}
	return role, nil
}

// Set upserts the subject's role.
func (c *RoleCache) Set(ctx context.Context, subject string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"role":       string(role),
		"updated_at": time.Now().UTC(),
	}}
	_, err := c.coll.UpdateOne(ctx, bson.M{"_id": subject}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert cached role: %w", err)
	}
	return nil
}

func (c *RoleCache) Remove(ctx context.Context, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": subject}); err != nil {
		return fmt.Errorf("delete cached role: %w", err)
	}
	return nil
}

func (c *RoleCache) Ping(ctx context.Context) error {
	return c.coll.Database().Client().Ping(ctx, nil)
}

// EnsureIndexes creates the indexes used to expire stale entries by age.
func (c *RoleCache) EnsureIndexes(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	return err
}
