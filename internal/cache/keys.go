package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

// JobRecordKey hashes the status URL so keys stay short and free of URL characters.
func JobRecordKey(handle models.JobHandle) string {
	sum := sha256.Sum256([]byte(handle))
	return fmt.Sprintf("job:%s", hex.EncodeToString(sum[:]))
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

func QuotaKey() string {
	return "sharpapi:quota"
}
