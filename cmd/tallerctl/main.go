// tallerctl agrupa las tareas de operación: migraciones, alta del super admin y
// control de numeración duplicada.
package main

import (
	"fmt"
	"os"

	"taller-backend/internal/config"
	"taller-backend/internal/database"
	"taller-backend/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "tallerctl",
	Short:         "Herramientas de operación del backend del taller",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Setup(cfg)
		db, err := database.Open(cfg)
		if err != nil {
			return fmt.Errorf("conectar a la base: %w", err)
		}
		database.DB = db
		return nil
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd, seedAdminCmd, checkNumbersCmd)
	if err := rootCmd.Execute(); err != nil {
		logger.Get().WithError(err).Error("comando fallido")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
