package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/service/chat"
)

var (
	chatEndpoint string
	chatResult   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Conversa com o assistente sobre um resultado de simulação",
	Long: `Abre uma conversa no terminal. Sem --endpoint, o modelo é chamado
diretamente; com --endpoint, as mensagens vão para POST /api/aichat.

--result aceita o JSON com "excelOutput" e "formValues" (mesmo formato de /api/summary).`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatEndpoint, "endpoint", "", "远端 /api/aichat 地址")
	chatCmd.Flags().StringVar(&chatResult, "result", "", "模拟结果 JSON 文件")
}

type resultFile struct {
	ExcelOutput json.RawMessage `json:"excelOutput"`
	FormValues  json.RawMessage `json:"formValues"`
}

func runChat(cmd *cobra.Command, args []string) error {
	var result resultFile
	if chatResult != "" {
		data, err := os.ReadFile(chatResult)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("decode %s: %w", chatResult, err)
		}
	}

	var asker chat.Asker
	if chatEndpoint != "" {
		asker = chat.HTTPAsker{Endpoint: chatEndpoint}
	} else {
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		asker = chat.RelayAsker{Relay: a.relay}
	}

	session := chat.NewSession(asker, result.ExcelOutput, result.FormValues)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Digite sua pergunta (linha vazia ou Ctrl+D para sair).")

	sc := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			break
		}
		reply, err := session.Send(cmd.Context(), text)
		if err != nil {
			logger.Debug("chat turn failed", zap.Error(err))
		}
		fmt.Fprintln(out, reply)
	}
	return sc.Err()
}
