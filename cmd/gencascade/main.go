// main.go - Cascade provisioning tool.
// Copyright (C) 2024  CascadeMix Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// gencascade generates everything a test cascade needs: one keypair and
// TOML config per relay, plus the CBOR directory document clients consume.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/cascademix/core/config"
	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/crypto/pem"
	"github.com/cascademix/core/crypto/rand"
	"github.com/cascademix/core/mix"
	"github.com/cascademix/core/pki"
)

const (
	privateKeyFile = "relay.private.pem"
	publicKeyFile  = "relay.public.pem"
	configFile     = "cascade.toml"
	documentFile   = "cascade.pki"
)

func main() {
	nrHops := flag.Int("hops", 3, "Number of relays in the cascade")
	outDir := flag.String("out", "", "Output directory (must exist)")
	logLevel := flag.String("loglevel", "NOTICE", "Relay log level")
	flag.Parse()

	if *nrHops < 1 {
		fmt.Fprintf(os.Stderr, "gencascade: -hops %d is invalid\n", *nrHops)
		os.Exit(1)
	}
	baseDir, err := filepath.Abs(*outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gencascade: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, *nrHops)
	keys := make([]*group.PublicKey, 0, *nrHops)
	for i := 0; i < *nrHops; i++ {
		name := fmt.Sprintf("relay%d", i)
		if err := genRelay(baseDir, name, *logLevel, i == *nrHops-1, *nrHops); err != nil {
			fmt.Fprintf(os.Stderr, "gencascade: %s: %v\n", name, err)
			os.Exit(1)
		}

		pubKey := new(group.PublicKey)
		if err := pem.FromFile(filepath.Join(baseDir, name, publicKeyFile), pubKey); err != nil {
			fmt.Fprintf(os.Stderr, "gencascade: %s: %v\n", name, err)
			os.Exit(1)
		}
		names = append(names, name)
		keys = append(keys, pubKey)
	}

	if err := genDocument(baseDir, names, keys); err != nil {
		fmt.Fprintf(os.Stderr, "gencascade: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(mix.NewGeometry(*nrHops).Display())
}

func genRelay(baseDir, name, logLevel string, isFinalHop bool, nrHops int) error {
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	privFile := filepath.Join(dir, privateKeyFile)
	pubFile := filepath.Join(dir, publicKeyFile)
	if pem.Exists(privFile) || pem.Exists(pubFile) {
		return fmt.Errorf("key material already exists")
	}

	privKey, err := group.NewKeypair(rand.Reader)
	if err != nil {
		return err
	}
	if err = pem.ToFile(privFile, privKey); err != nil {
		return err
	}
	if err = pem.ToFile(pubFile, privKey.PublicKey()); err != nil {
		return err
	}

	cfg := &config.Config{
		Relay: &config.Relay{
			PrivateKeyFile: privFile,
			IsFinalHop:     isFinalHop,
			NrHops:         nrHops,
		},
		Logging: &config.Logging{
			File:  "",
			Level: logLevel,
		},
	}
	if err = cfg.FixupAndValidate(); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, configFile))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func genDocument(baseDir string, names []string, keys []*group.PublicKey) error {
	d, err := pki.NewDocument(names, keys)
	if err != nil {
		return err
	}
	b, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Printf("writing %s\n", documentFile)
	return os.WriteFile(filepath.Join(baseDir, documentFile), b, 0600)
}
