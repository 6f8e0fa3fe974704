package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/xavierca1/atomic-crm/internal/infra/integration/kommo"
)

// Envia um lead de teste para o Kommo usando as mesmas credenciais do worker.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("⚠️ arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	token := os.Getenv("KOMMO_API_TOKEN")
	if token == "" {
		slog.Error("❌ KOMMO_API_TOKEN deve estar configurado")
		os.Exit(1)
	}

	baseURL := os.Getenv("KOMMO_BASE_URL")
	if baseURL == "" {
		baseURL = "https://atomiccrm.kommo.com/api/v4"
	}

	client := kommo.NewClient(baseURL, token, 10*time.Second)

	input := kommo.CreateLeadInput{
		Name:  "Joao Teste da Silva",
		Phone: "556199767638",
		Email: "joao.teste@email.com",
	}

	fmt.Println("🔄 Criando lead no Kommo...")
	fmt.Printf("   Nome: %s\n   Telefone: %s\n   Email: %s\n\n", input.Name, input.Phone, input.Email)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	leadID, err := client.CreateLead(ctx, input)
	if err != nil {
		slog.Error("erro ao criar lead no Kommo", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Lead criado com sucesso no Kommo! ID #%d\n", leadID)
}
