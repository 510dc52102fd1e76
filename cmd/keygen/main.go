// Package main generates API keys for the edgeguard credential set.
// Print a key, then add it to API_KEYS or the api_keys list in the config file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"edgeguard/pkg/secrets"
)

type generatedKey struct {
	Key         string `json:"key"`
	Fingerprint string `json:"fingerprint"`
}

type keyOutput struct {
	Keys  []generatedKey    `json:"keys"`
	Usage map[string]string `json:"usage"`
}

func main() {
	count := flag.Int("n", 1, "Number of keys to generate")
	size := flag.Int("bytes", secrets.DefaultSize, "Random bytes per key (minimum 32)")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if err := run(os.Stdout, secrets.Generate, *count, *size, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, generate func(int) (string, error), count, size int, asJSON bool) error {
	if count < 1 {
		return fmt.Errorf("-n must be at least 1")
	}

	keys := make([]generatedKey, 0, count)
	for range count {
		key, err := generate(size)
		if err != nil {
			return err
		}
		keys = append(keys, generatedKey{Key: key, Fingerprint: secrets.Fingerprint(key)})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(keyOutput{
			Keys: keys,
			Usage: map[string]string{
				"header": "x-api-key: " + keys[0].Key,
				"env":    "API_KEYS=" + keys[0].Key,
			},
		})
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", k.Key, k.Fingerprint); err != nil {
			return err
		}
	}
	return nil
}
