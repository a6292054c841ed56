package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"inmo_scrooper/models"
	"inmo_scrooper/services"
	"inmo_scrooper/session"
)

const chatPreview = 5

var missingPrompts = map[string]string{
	"operation":     "¿Buscás comprar o alquilar?",
	"property_type": "¿Qué tipo de propiedad? (casa, departamento, terreno...)",
	"location":      "¿En qué ciudad o barrio?",
}

// runChat reads one message per line and keeps the accumulated filter in a
// single session. "reset" starts over, "salir" or EOF ends the loop.
func runChat(ctx context.Context, svc *services.SearchService, sessions *session.Store, in io.Reader, out io.Writer) {
	id := sessions.NewID()
	defer sessions.Delete(id)

	fmt.Fprintln(out, "Contame qué propiedad buscás. \"reset\" para empezar de nuevo, \"salir\" para terminar.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "salir", "exit", "quit":
			return
		case "reset":
			sessions.Reset(id)
			fmt.Fprintln(out, "Listo, empezamos de nuevo.")
			continue
		}

		prev, _ := sessions.Get(id)
		outcome := svc.SearchText(ctx, prev, line)
		sessions.Set(id, outcome.Filter)

		if outcome.Insufficient() {
			for _, m := range outcome.Missing {
				fmt.Fprintln(out, missingPrompts[m])
			}
			continue
		}
		renderResult(out, outcome.Result)
		if ctx.Err() != nil {
			return
		}
	}
}

func renderResult(out io.Writer, r *models.SearchResult) {
	if r.Total == 0 {
		fmt.Fprintf(out, "No encontré propiedades en %s con esos filtros.\n", r.LocationLabel)
		return
	}
	fmt.Fprintf(out, "Encontré %d propiedades en %s:\n", r.Total, r.LocationLabel)
	for i, l := range r.Listings {
		if i == chatPreview {
			fmt.Fprintf(out, "  ... y %d más\n", r.Total-chatPreview)
			break
		}
		star := ""
		if l.Featured {
			star = " *"
		}
		fmt.Fprintf(out, "%2d. %s%s\n    %s | %s\n", l.Position, l.SafeTitle(), star, l.PriceText(), l.LocationText())
		if l.URL != nil {
			fmt.Fprintf(out, "    %s\n", *l.URL)
		}
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("Warning: could not encode output: %v", err)
	}
}
