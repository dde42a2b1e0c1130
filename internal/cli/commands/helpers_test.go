package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/paidlog/pkg/config"
)

const (
	idA = "0a1b2c3d-0000-4000-8000-00000000000a"
	idB = "0a1b2c3d-0000-4000-8000-00000000000b"
	idC = "0a1b2c3d-0000-4000-8000-00000000000c"
	idD = "0a1b2c3d-0000-4000-8000-00000000000d"
)

func hobbitLine(id, addr string) string {
	return fmt.Sprintf(`{"httpRequest":{"status":200,"requestUrl":"https://www.shop.example/payment/%s","remoteIp":"%s"}}`, id, addr)
}

func columbusLine(id, addr string) string {
	return fmt.Sprintf(`{"httpRequest":{"status":200,"requestUrl":"https://www.shop.example/order/profiles/%s/payments/new","remoteIp":"%s"}}`, id, addr)
}

// sampleLog has one paid hobbit visit seen twice, one paid and one unpaid
// columbus visit, and two lines that are never counted.
func sampleLog() string {
	return strings.Join([]string{
		hobbitLine(idA, "10.0.0.1"),
		hobbitLine(idA, "10.0.0.1"),
		columbusLine(idB, "10.0.0.2"),
		columbusLine(idC, "10.0.0.3"),
		`{"httpRequest":{"status":404,"requestUrl":"https://www.shop.example/payment/` + idD + `","remoteIp":"10.0.0.4"}}`,
		`{"httpRequest":{"status":200,"requestUrl":"https://www.shop.example/cart","remoteIp":"10.0.0.5"}}`,
	}, "\n") + "\n"
}

// samplePaidCSV marks idA as PayPal, idB as credit card, and idD as Sofort.
func samplePaidCSV() string {
	return "1,paypal," + idA + "\n" +
		"2,credit_card," + idB + "\n" +
		"3,sofort," + idD + "\n"
}

// isolateEnv keeps the caller's environment and config directory out of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvIDSource, config.EnvIDQuery, config.EnvOutput, config.EnvLogSources} {
		t.Setenv(k, "")
	}
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// execute runs cmd with args and stdin, returning stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
