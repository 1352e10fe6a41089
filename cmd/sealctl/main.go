package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/seal-ibe/seal-go/internal/config"
	"github.com/seal-ibe/seal-go/internal/keyserverhttp"
	"github.com/seal-ibe/seal-go/internal/ledger"
	"github.com/seal-ibe/seal-go/internal/sealclient"
	"github.com/seal-ibe/seal-go/pkg/envelope"
)

func main() {
	var configPath string
	var packageIDHex, innerIDHex, inPath, outPath string

	encryptFunc := getEncryptFunc(&configPath, &packageIDHex, &innerIDHex, &inPath, &outPath)
	decryptFunc := getDecryptFunc(&configPath, &inPath, &outPath)

	app := &cli.App{
		Name:  "sealctl",
		Usage: "encrypt and decrypt objects against a configured set of key servers",
		Commands: []*cli.Command{
			{
				Name:  "encrypt",
				Usage: "encrypt a file under a package/identity and a t-of-n key server split",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "conf", Aliases: []string{"c"}, Value: "seal-client.yaml", Destination: &configPath},
					&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Required: true, Destination: &packageIDHex},
					&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Required: true, Destination: &innerIDHex},
					&cli.StringFlag{Name: "in", Required: true, Destination: &inPath},
					&cli.StringFlag{Name: "out", Required: true, Destination: &outPath},
				},
				Action: encryptFunc,
			},
			{
				Name:  "decrypt",
				Usage: "decrypt a previously encrypted envelope",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "conf", Aliases: []string{"c"}, Value: "seal-client.yaml", Destination: &configPath},
					&cli.StringFlag{Name: "in", Required: true, Destination: &inPath},
					&cli.StringFlag{Name: "out", Required: true, Destination: &outPath},
				},
				Action: decryptFunc,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func buildClient(configPath string) (*sealclient.SealClient, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	serverIDs, err := cfg.ServerObjectIDs()
	if err != nil {
		return nil, err
	}
	verify := cfg.VerifyKeyServers
	return sealclient.NewSealClient(sealclient.Options{
		LedgerClient:     &ledger.FabricLedgerClient{ChaincodeID: cfg.Ledger.ChaincodeID},
		Transport:        keyserverhttp.NewClient(),
		ServerObjectIDs:  serverIDs,
		VerifyKeyServers: &verify,
		TimeoutMs:        cfg.TimeoutMs,
	}), nil
}

func getEncryptFunc(configPath, packageIDHex, innerIDHex, inPath, outPath *string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		client, err := buildClient(*configPath)
		if err != nil {
			return err
		}
		packageIDBytes, err := hex.DecodeString(*packageIDHex)
		if err != nil || len(packageIDBytes) != 32 {
			return fmt.Errorf("sealctl: --package must be a 32-byte hex string")
		}
		var packageID [32]byte
		copy(packageID[:], packageIDBytes)
		innerID, err := hex.DecodeString(*innerIDHex)
		if err != nil {
			return fmt.Errorf("sealctl: --id must be a hex string")
		}
		plaintext, err := ioutil.ReadFile(*inPath)
		if err != nil {
			return err
		}

		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}

		result, err := client.Encrypt(context.Background(), sealclient.EncryptOptions{
			PackageID: packageID,
			InnerID:   innerID,
			Threshold: cfg.Threshold,
			Plaintext: plaintext,
			Mode:      envelope.CiphertextAes256Gcm,
		})
		if err != nil {
			return err
		}
		return ioutil.WriteFile(*outPath, result.Bytes, 0o644)
	}
}

func getDecryptFunc(configPath, inPath, outPath *string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		client, err := buildClient(*configPath)
		if err != nil {
			return err
		}
		data, err := ioutil.ReadFile(*inPath)
		if err != nil {
			return err
		}
		plaintext, err := client.Decrypt(context.Background(), sealclient.DecryptOptions{Data: data})
		if err != nil {
			return err
		}
		return ioutil.WriteFile(*outPath, plaintext, 0o644)
	}
}
