package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Anvoria/tokenly/internal/config"
)

// Command implements the keys management command
type Command struct{}

func (c *Command) Name() string {
	return "keys"
}

func (c *Command) Description() string {
	return "Manage access token signing keys (generate, list)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch args[0] {
	case "generate":
		return c.runGenerate(args[1:])
	case "list":
		return c.runList(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: tokenly-cli keys <subcommand> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  generate              Generate a new RSA key pair\n")
	fmt.Fprintf(os.Stderr, "    -kid <id>           Key ID (required)\n")
	fmt.Fprintf(os.Stderr, "    -bits <size>        Key size: 2048, 3072, or 4096 (default: 2048)\n")
	fmt.Fprintf(os.Stderr, "    -path <dir>         Custom keys directory (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  list                  List all available keys\n")
}

func (c *Command) runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	kid := fs.String("kid", "", "Key ID (required)")
	bits := fs.Int("bits", 2048, "Key size in bits (2048, 3072, or 4096)")
	customPath := fs.String("path", "", "Custom keys directory path (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *kid == "" {
		return fmt.Errorf("key ID is required")
	}
	if *bits != 2048 && *bits != 3072 && *bits != 4096 {
		return fmt.Errorf("key size must be 2048, 3072, or 4096")
	}

	keysPath, _, err := resolveKeysPath(*customPath)
	if err != nil {
		return err
	}

	return generateKey(keysPath, *kid, *bits)
}

func (c *Command) runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	customPath := fs.String("path", "", "Custom keys directory path (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	keysPath, activeKid, err := resolveKeysPath(*customPath)
	if err != nil {
		return err
	}

	return listKeys(keysPath, activeKid)
}

func resolveKeysPath(customPath string) (string, string, error) {
	envConfig := config.LoadEnv()
	cfg, err := config.Load(envConfig.ConfigPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to load configuration: %w", err)
	}

	keysPath := cfg.Token.KeysPath
	if customPath != "" {
		keysPath = customPath
	}
	return keysPath, cfg.Token.ActiveKID, nil
}

func generateKey(keysPath, kid string, bits int) error {
	if err := os.MkdirAll(keysPath, 0700); err != nil {
		return fmt.Errorf("failed to create keys directory: %w", err)
	}

	privPath := filepath.Join(keysPath, fmt.Sprintf("private-%s.pem", kid))
	pubPath := filepath.Join(keysPath, fmt.Sprintf("public-%s.pem", kid))

	if _, err := os.Stat(privPath); err == nil {
		return fmt.Errorf("key with ID %s already exists at %s", kid, privPath)
	}

	fmt.Printf("Generating %d-bit RSA key pair...\n", bits)
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})
	if err := os.WriteFile(privPath, privPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	if err := os.WriteFile(pubPath, pubPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	fmt.Printf("Key pair generated:\n  %s\n  %s\n", privPath, pubPath)
	return nil
}

func listKeys(keysPath, activeKid string) error {
	files, err := os.ReadDir(keysPath)
	if err != nil {
		return fmt.Errorf("failed to read keys directory: %w", err)
	}

	found := false
	for _, file := range files {
		name := file.Name()
		if !strings.HasPrefix(name, "private-") || filepath.Ext(name) != ".pem" {
			continue
		}

		kid := strings.TrimSuffix(strings.TrimPrefix(name, "private-"), ".pem")
		marker := " "
		if kid == activeKid {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, kid)
		found = true
	}

	if !found {
		fmt.Println("No keys found. Generate one with: tokenly-cli keys generate -kid <id>")
	}
	return nil
}
