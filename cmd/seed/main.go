package main

import (
	"context"
	"flag"
	"log"
	"os"

	"piuma/internal/config"
	"piuma/internal/document"
	"piuma/internal/domain/services"
	"piuma/internal/names"
	"piuma/internal/repository"
	"piuma/internal/service"
	authsvc "piuma/internal/service/auth"

	"github.com/joho/godotenv"
)

// seedNode describes a node of the sample document.
type seedNode struct {
	kind     document.Kind
	name     string
	url      string
	children []seedNode
}

var sample = []seedNode{
	{kind: document.KindFolder, name: "Users", children: []seedNode{
		{kind: document.KindRequest, name: "List users", url: "https://api.example.com/v1/users"},
		{kind: document.KindRequest, name: "Get user", url: "https://api.example.com/v1/users/42"},
		{kind: document.KindFolder, name: "Admin", children: []seedNode{
			{kind: document.KindRequest, name: "Audit log", url: "https://api.example.com/v1/admin/audit"},
		}},
	}},
	{kind: document.KindFolder, name: "Billing", children: []seedNode{
		{kind: document.KindRequest, name: "Invoices", url: "https://api.example.com/v1/invoices"},
	}},
	{kind: document.KindRequest, name: "Health", url: "https://api.example.com/health"},
}

func main() {
	name := flag.String("name", "Example API", "Root folder name of the seeded document")
	output := flag.String("o", "", "Also write the encoded document to this file")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg, os.Stdout)

	ctx := context.Background()
	st, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	catalog, err := names.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load name catalog: %v", err)
	}

	workspace := service.NewWorkspaceService(st.Repo, st.TxManager, authsvc.NewOwnerBasedAuthorizer(),
		service.WorkspaceConfig{Namer: catalog.Namer(cfg.Locale), Autosave: false}, logger)

	log.Printf("Seeding document %q (store: %s)", *name, cfg.StoreDriver)

	state, err := workspace.CreateDocument(ctx, &services.CreateDocumentRequest{Name: name})
	if err != nil {
		log.Fatalf("Failed to create document: %v", err)
	}
	if err := seed(ctx, workspace, state.ID, nil, sample); err != nil {
		log.Fatalf("Failed to seed document: %v", err)
	}
	if _, err := workspace.SaveDocument(ctx, state.ID); err != nil {
		log.Fatalf("Failed to save document: %v", err)
	}

	if *output != "" {
		data, err := workspace.ExportDocument(ctx, state.ID)
		if err != nil {
			log.Fatalf("Failed to export document: %v", err)
		}
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", *output, err)
		}
		log.Printf("Wrote %s", *output)
	}

	log.Printf("Seeding complete (ID: %s)", state.ID)
}

func seed(ctx context.Context, ws services.WorkspaceService, docID string, parentID *string, nodes []seedNode) error {
	for _, n := range nodes {
		req := &services.CreateNodeRequest{ParentID: parentID, Kind: n.kind, Name: &n.name}
		if n.url != "" {
			req.URL = &n.url
		}
		created, err := ws.CreateNode(ctx, docID, req)
		if err != nil {
			return err
		}
		if err := seed(ctx, ws, docID, &created.ID, n.children); err != nil {
			return err
		}
	}
	return nil
}
