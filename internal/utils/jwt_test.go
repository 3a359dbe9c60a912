package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
)

// TokenIssuerTestSuite JWT工具测试套件
type TokenIssuerTestSuite struct {
	suite.Suite
	issuer *TokenIssuer
}

func (suite *TokenIssuerTestSuite) SetupTest() {
	suite.issuer = NewTokenIssuer("test-secret-key", "expo-garden", time.Hour)
}

// 测试签发与解析
func (suite *TokenIssuerTestSuite) TestIssueAndParse() {
	token, expiresAt, err := suite.issuer.Issue(42, "owner@example.com", "부스주인", "EXHIBITOR")
	suite.NoError(err)
	suite.NotEmpty(token)
	suite.WithinDuration(time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := suite.issuer.Parse(token)
	suite.NoError(err)
	suite.Equal(uint(42), claims.UserID)
	suite.Equal("owner@example.com", claims.Email)
	suite.Equal("부스주인", claims.Nickname)
	suite.Equal("EXHIBITOR", claims.Role)
	suite.Equal("42", claims.Subject)
	suite.Equal("expo-garden", claims.Issuer)
}

func (suite *TokenIssuerTestSuite) TestParseInvalid() {
	_, err := suite.issuer.Parse("")
	suite.True(apperrors.Is(err, apperrors.ErrTokenInvalid))

	_, err = suite.issuer.Parse("not.a.token")
	suite.True(apperrors.Is(err, apperrors.ErrTokenInvalid))

	// 不同密钥签发的令牌
	other := NewTokenIssuer("other-secret", "expo-garden", time.Hour)
	token, _, err := other.Issue(1, "a@b.c", "a", "VISITOR")
	suite.NoError(err)
	_, err = suite.issuer.Parse(token)
	suite.True(apperrors.Is(err, apperrors.ErrTokenInvalid))

	// 不同签发方
	foreign := NewTokenIssuer("test-secret-key", "someone-else", time.Hour)
	token, _, err = foreign.Issue(1, "a@b.c", "a", "VISITOR")
	suite.NoError(err)
	_, err = suite.issuer.Parse(token)
	suite.True(apperrors.Is(err, apperrors.ErrTokenInvalid))
}

// 测试过期令牌
func (suite *TokenIssuerTestSuite) TestExpiredToken() {
	past := time.Now().Add(-2 * time.Hour)
	suite.issuer.now = func() time.Time { return past }
	token, _, err := suite.issuer.Issue(7, "x@y.z", "x", "VISITOR")
	suite.NoError(err)

	suite.issuer.now = time.Now
	_, err = suite.issuer.Parse(token)
	suite.True(apperrors.Is(err, apperrors.ErrTokenExpired))
	suite.Equal(401, apperrors.Wrap(err, apperrors.ErrUnknown).HTTPStatus())
}

func (suite *TokenIssuerTestSuite) TestConcurrentIssue() {
	var wg sync.WaitGroup
	tokens := make([]string, 20)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, _, err := suite.issuer.Issue(uint(i+1), "c@d.e", "c", "VISITOR")
			suite.NoError(err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	for i, token := range tokens {
		claims, err := suite.issuer.Parse(token)
		suite.NoError(err)
		suite.Equal(uint(i+1), claims.UserID)
	}
}

func TestTokenIssuerSuite(t *testing.T) {
	suite.Run(t, new(TokenIssuerTestSuite))
}
