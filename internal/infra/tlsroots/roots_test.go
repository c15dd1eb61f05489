package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("NewPool().Pool() returned nil")
	}
	if NewEmptyPool().Pool() == nil {
		t.Fatal("NewEmptyPool().Pool() returned nil")
	}
}

func TestAddCertPEM(t *testing.T) {
	pool := NewEmptyPool()
	if err := pool.AddCertPEM(append(generateTestCertPEM(t), generateTestCertPEM(t)...)); err != nil {
		t.Fatalf("AddCertPEM() error = %v", err)
	}
}

func TestAddCertPEM_NoCerts(t *testing.T) {
	keyOnly := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")})
	if err := NewEmptyPool().AddCertPEM(keyOnly); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertPEM() error = %v, want ErrNoCertsFound", err)
	}
	if err := NewEmptyPool().AddCertPEM([]byte("not pem")); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertPEM(garbage) error = %v", err)
	}
}

func TestAddCertPEM_InvalidCert(t *testing.T) {
	bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")})
	if err := NewEmptyPool().AddCertPEM(bad); err == nil {
		t.Error("AddCertPEM() expected parse error")
	}
}

func TestAddCertFile_NotFound(t *testing.T) {
	if err := NewEmptyPool().AddCertFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("AddCertFile() expected error")
	}
}

func TestClientConfig_Defaults(t *testing.T) {
	cfg, err := ClientConfig(Options{})
	if err != nil || cfg != nil {
		t.Errorf("ClientConfig({}) = %v, %v; want nil, nil", cfg, err)
	}
}

func TestClientConfig_Insecure(t *testing.T) {
	cfg, err := ClientConfig(Options{Insecure: true})
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if !cfg.InsecureSkipVerify || cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("ClientConfig() = %+v", cfg)
	}
}

func TestClientConfig_CAFileTrustsServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, pemData, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ClientConfig(Options{CAFile: caFile})
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET with private CA error = %v", err)
	}
	resp.Body.Close()
	client.CloseIdleConnections()
}

func TestClientConfig_BadCAFile(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	os.WriteFile(caFile, []byte("nothing here"), 0o600)
	if _, err := ClientConfig(Options{CAFile: caFile}); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("ClientConfig() error = %v, want ErrNoCertsFound", err)
	}
}

func generateTestCertPEM(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "staffdesk test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
