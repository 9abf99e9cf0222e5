package otpx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

// Mid-step so that +/- 30s lands cleanly inside the neighbouring steps.
var testNow = time.Unix(1_700_000_015, 0)

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    Period,
		Digits:    Digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestGenerator_Generate(t *testing.T) {
	g := &Generator{Issuer: "TOTPGate"}

	e, err := g.Generate("a@x.com")
	require.NoError(t, err)
	require.Len(t, e.Secret, 32, "160-bit secret is 32 base32 chars")

	u, err := url.Parse(e.URI)
	require.NoError(t, err)
	require.Equal(t, "otpauth", u.Scheme)
	require.Equal(t, "totp", u.Host)
	require.Contains(t, u.Path, "a@x.com")

	q := u.Query()
	require.Equal(t, e.Secret, q.Get("secret"))
	require.Equal(t, "TOTPGate", q.Get("issuer"))
	require.Equal(t, "SHA1", q.Get("algorithm"))
	require.Equal(t, "6", q.Get("digits"))
	require.Equal(t, "30", q.Get("period"))

	other, err := g.Generate("a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, e.Secret, other.Secret)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerator_RandomFailureAborts(t *testing.T) {
	g := &Generator{Issuer: "TOTPGate", Rand: failingReader{}}

	e, err := g.Generate("a@x.com")
	require.Error(t, err)
	require.Empty(t, e.Secret)
	require.Empty(t, e.URI)
}

func TestGenerator_Rebuild(t *testing.T) {
	g := &Generator{Issuer: "TOTPGate"}

	e, err := g.Generate("ann@x.com")
	require.NoError(t, err)

	again, err := g.Rebuild("ann@x.com", e.Secret)
	require.NoError(t, err)
	require.Equal(t, e, again)

	_, err = g.Rebuild("ann@x.com", "not base32!")
	require.Error(t, err)

	_, err = g.Rebuild("ann@x.com", "")
	require.Error(t, err)
}

func TestQRCodeDataURL(t *testing.T) {
	g := &Generator{Issuer: "TOTPGate"}
	e, err := g.Generate("a@x.com")
	require.NoError(t, err)

	dataURL, err := QRCodeDataURL(e.URI)
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(dataURL, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, qrCodeSize, img.Bounds().Dx())
	require.Equal(t, qrCodeSize, img.Bounds().Dy())

	_, err = QRCodeDataURL("://nope")
	require.Error(t, err)
}

func TestVerifier_WindowBoundary(t *testing.T) {
	v := &Verifier{Skew: DefaultSkew, Now: fixedClock(testNow)}

	tests := []struct {
		name  string
		steps int
		ok    bool
	}{
		{"T-2", -2, false},
		{"T-1", -1, true},
		{"T", 0, true},
		{"T+1", 1, true},
		{"T+2", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := codeAt(t, testSecret, testNow.Add(time.Duration(tt.steps)*Period*time.Second))
			err := v.Verify(testSecret, code)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidCode)
		})
	}
}

func TestVerifier_WiderSkew(t *testing.T) {
	v := &Verifier{Skew: 2, Now: fixedClock(testNow)}

	code := codeAt(t, testSecret, testNow.Add(-2*Period*time.Second))
	require.NoError(t, v.Verify(testSecret, code))
}

func TestVerifier_ExactStep(t *testing.T) {
	v := &Verifier{Skew: 0, Now: fixedClock(testNow)}

	require.NoError(t, v.Verify(testSecret, codeAt(t, testSecret, testNow)))

	for _, steps := range []int{-1, 1} {
		code := codeAt(t, testSecret, testNow.Add(time.Duration(steps)*Period*time.Second))
		if code == codeAt(t, testSecret, testNow) {
			continue
		}
		require.ErrorIs(t, v.Verify(testSecret, code), ErrInvalidCode)
	}
}

func TestVerifier_AcceptsWhitespace(t *testing.T) {
	v := &Verifier{Now: fixedClock(testNow)}
	code := codeAt(t, testSecret, testNow)

	require.NoError(t, v.Verify(testSecret, " "+code[:3]+" "+code[3:]+"\n"))
	require.NoError(t, v.Verify(strings.ToLower(testSecret), code), "secret case is irrelevant")
}

func TestVerifier_MalformedCodes(t *testing.T) {
	v := &Verifier{Now: fixedClock(testNow)}

	for _, code := range []string{"", "   ", "12345", "1234567", "12a456", "abcdef", "12-456", "١٢٣٤٥٦", "12345\x00"} {
		t.Run(code, func(t *testing.T) {
			require.NotPanics(t, func() {
				require.ErrorIs(t, v.Verify(testSecret, code), ErrInvalidCodeFormat)
			})
		})
	}
}

func TestVerifier_MalformedSecret(t *testing.T) {
	v := &Verifier{Now: fixedClock(testNow)}

	require.NotPanics(t, func() {
		require.ErrorIs(t, v.Verify("!!not-base32!!", "123456"), ErrInvalidCode)
	})
}

func TestVerifier_WrongSecret(t *testing.T) {
	v := &Verifier{Now: fixedClock(testNow)}
	other := (&Generator{Issuer: "TOTPGate"})

	e, err := other.Generate("b@x.com")
	require.NoError(t, err)

	code := codeAt(t, e.Secret, testNow)
	if code == codeAt(t, testSecret, testNow) {
		t.Skip("codes collided")
	}
	require.ErrorIs(t, v.Verify(testSecret, code), ErrInvalidCode)
}

func TestVerifier_NearEpoch(t *testing.T) {
	at := time.Unix(5, 0)
	v := &Verifier{Now: fixedClock(at)}

	require.NoError(t, v.Verify(testSecret, codeAt(t, testSecret, at)))
}

// matchAny must give the same answer wherever the match sits and must not
// short-circuit on length mismatches.
func TestMatchAny_ConstantTimeComparison(t *testing.T) {
	candidates := []string{"111111", "222222", "333333"}

	require.True(t, matchAny("111111", candidates))
	require.True(t, matchAny("222222", candidates))
	require.True(t, matchAny("333333", candidates))
	require.False(t, matchAny("444444", candidates))
	require.False(t, matchAny("11111", candidates))
	require.False(t, matchAny("111111", nil))
}
