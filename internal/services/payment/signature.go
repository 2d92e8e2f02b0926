package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// MidtransSignature computes hex(SHA-512(orderID + statusCode + grossAmount + serverKey)).
// The inputs are the raw strings from the notification body.
func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifyMidtransSignature compares the expected signature with the supplied
// one in constant time.
func VerifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	expected := MidtransSignature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
