package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/velli/flipscout/internal/scan"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [gemini|mock]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY - Required for Gemini\n")
		os.Exit(1)
	}

	imagePath := os.Args[1]
	provider := "gemini"
	if len(os.Args) >= 3 {
		provider = os.Args[2]
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	mimeType := getMimeType(imagePath)
	ctx := context.Background()

	var analyzer scan.Analyzer
	switch provider {
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "GEMINI_API_KEY is not set")
			os.Exit(1)
		}
		analyzer, err = scan.NewGeminiAnalyzer(ctx, apiKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating Gemini analyzer: %v\n", err)
			os.Exit(1)
		}
	case "mock":
		analyzer = scan.NewMockAnalyzer()
	default:
		fmt.Fprintf(os.Stderr, "Unknown provider: %s (use gemini or mock)\n", provider)
		os.Exit(1)
	}

	attrs, err := analyzer.AnalyzeImage(ctx, imageData, mimeType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing image: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Brand:     %s\n", attrs.Brand)
	fmt.Printf("Category:  %s\n", attrs.Category)
	fmt.Printf("Size:      %s\n", attrs.Size)
	fmt.Printf("Condition: %s\n", attrs.Condition)
	fmt.Printf("Color:     %s\n", attrs.Color)
}

func getMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
