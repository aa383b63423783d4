package services

import (
	"fmt"
	"time"

	"splitledger/pkg/utils"
)

// GenerateReference builds an opaque reference like pay-20260831120000-a1b2c3.
func GenerateReference(prefix string) string {
	return fmt.Sprintf("%s%s-%s", prefix, time.Now().Format("20060102150405"), utils.GenerateRandomString(6))
}
