package pkg

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var ErrCodeLength = errors.New("code length must be positive")

var ten = big.NewInt(10)

// VerificationCode 生成 n 位十进制验证码，保留前导零
func VerificationCode(n int) (string, error) {
	if n <= 0 {
		return "", ErrCodeLength
	}
	code := make([]byte, n)
	for i := range code {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		code[i] = '0' + byte(d.Int64())
	}
	return string(code), nil
}
