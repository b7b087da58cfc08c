// Package password 密码哈希。新密码使用 bcrypt，旧面板迁移的 md5/sha256 加盐哈希仍可校验。
package password

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hash 生成 bcrypt 哈希
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify 校验密码，依次尝试 bcrypt、sha256(pw+salt)、md5(pw+salt)
func Verify(plain, hash, salt string) bool {
	if hash == "" {
		return false
	}

	if IsBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
	}

	sum256 := sha256.Sum256([]byte(plain + salt))
	if equalHex(hex.EncodeToString(sum256[:]), hash) {
		return true
	}

	sumMD5 := md5.Sum([]byte(plain + salt))
	return equalHex(hex.EncodeToString(sumMD5[:]), hash)
}

// IsBcrypt 判断是否为 bcrypt 哈希，旧哈希登录成功后可据此升级
func IsBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func equalHex(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(strings.ToLower(b))) == 1
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString 生成随机字符串，用作代理连接密码
func RandomString(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(randomAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}
