package common

import (
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cast"
	"golang.org/x/crypto/bcrypt"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	snowflakeNode *snowflake.Node
	nodeOnce      sync.Once
)

func initNode() {
	rand.Seed(time.Now().UnixNano())
	nodeID := int64(rand.Intn(1023))
	if v := os.Getenv("COMMERCE_NODE_ID"); v != "" {
		nodeID = cast.ToInt64(v) % 1024
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		panic(err)
	}
	snowflakeNode = node
}

// UUIDint64 returns a snowflake id usable as a primary key.
func UUIDint64() int64 {
	nodeOnce.Do(initNode)
	return snowflakeNode.Generate().Int64()
}

// UUID returns a snowflake id in base36 string form.
func UUID() string {
	nodeOnce.Do(initNode)
	return snowflakeNode.Generate().Base36()
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext candidate.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
