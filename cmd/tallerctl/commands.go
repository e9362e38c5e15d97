package main

import (
	"fmt"

	"taller-backend/internal/auth"
	"taller-backend/internal/database"
	"taller-backend/internal/logger"
	"taller-backend/internal/numbering"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Crea o actualiza las tablas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(database.DB); err != nil {
			return fmt.Errorf("migración: %w", err)
		}
		logger.Get().Info("Migración completa")
		return nil
	},
}

var seedAdminCmd = &cobra.Command{
	Use:     "seed-admin",
	Short:   "Crea el super admin si todavía no existe",
	Example: `  tallerctl seed-admin --name "Admin" --email admin@taller.com --password secreto123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if err := database.Migrate(database.DB); err != nil {
			return fmt.Errorf("migración: %w", err)
		}
		user, err := auth.CreateSuperAdmin(name, email, password)
		if err != nil {
			return err
		}
		logger.Get().WithFields(logrus.Fields{"id": user.ID, "email": user.Email}).Info("Super admin creado")
		return nil
	},
}

var checkNumbersCmd = &cobra.Command{
	Use:   "check-numbers",
	Short: "Lista números de comprobante repetidos",
	RunE: func(cmd *cobra.Command, args []string) error {
		dups, err := numbering.FindDuplicates(database.DB)
		if err != nil {
			return fmt.Errorf("buscar duplicados: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, d := range dups {
			if d.Kind == "purchase" {
				fmt.Fprintf(out, "compra org=%d proveedor=%d %s %s-%s x%d\n",
					d.OrganizationID, d.SupplierID, d.DocumentType, d.PointOfSale, d.Number, d.Count)
				continue
			}
			fmt.Fprintf(out, "venta org=%d %s %s-%s x%d\n",
				d.OrganizationID, d.DocumentType, d.PointOfSale, d.Number, d.Count)
		}
		if len(dups) > 0 {
			return fmt.Errorf("%d grupos de números repetidos", len(dups))
		}
		fmt.Fprintln(out, "Sin números repetidos")
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().String("name", "", "Nombre del super admin")
	seedAdminCmd.Flags().String("email", "", "Email de acceso")
	seedAdminCmd.Flags().String("password", "", "Contraseña (mínimo 8 caracteres)")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")
}
