package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	applog "github.com/iliyamo/invoicing-portal/internal/log"
)

func main() {
	_ = godotenv.Load()
	applog.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "operate the invoicing portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(MigrateCMD(), CreateOperatorCMD())
	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("invoicectl failed")
		os.Exit(1)
	}
}
