package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// PasswordTestSuite 密码工具测试套件
type PasswordTestSuite struct {
	suite.Suite
	cfg *PasswordConfig
}

func (suite *PasswordTestSuite) SetupTest() {
	// 测试使用较低的内存参数
	suite.cfg = &PasswordConfig{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
}

func (suite *PasswordTestSuite) TestHashAndVerify() {
	hash, err := HashPasswordWithConfig("전시회비밀번호!", suite.cfg)
	suite.NoError(err)
	suite.True(strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := VerifyPassword("전시회비밀번호!", hash)
	suite.NoError(err)
	suite.True(ok)

	ok, err = VerifyPassword("wrong-password", hash)
	suite.NoError(err)
	suite.False(ok)
}

// 相同密码每次生成不同的盐
func (suite *PasswordTestSuite) TestSaltUniqueness() {
	h1, err := HashPasswordWithConfig("same-password", suite.cfg)
	suite.NoError(err)
	h2, err := HashPasswordWithConfig("same-password", suite.cfg)
	suite.NoError(err)
	suite.NotEqual(h1, h2)
}

func (suite *PasswordTestSuite) TestDefaultConfig() {
	hash, err := HashPassword("password123")
	suite.NoError(err)
	suite.Contains(hash, "m=65536,t=1,p=4")
}

func (suite *PasswordTestSuite) TestVerifyInvalidHash() {
	cases := []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
	}
	for _, encoded := range cases {
		ok, err := VerifyPassword("password", encoded)
		suite.Error(err, encoded)
		suite.False(ok)
	}
}

func TestPasswordSuite(t *testing.T) {
	suite.Run(t, new(PasswordTestSuite))
}
