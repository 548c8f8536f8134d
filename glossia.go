// Package glossia implements an AI-powered translation backend.
//
// Glossia translates text and documents through an OpenAI-compatible
// language model endpoint, with configurable tone, domain, glossary and
// context, chunked dispatch for large inputs, and in-order streamed
// reassembly that stays cancelable mid-flight.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/glossia"
//	    "github.com/ZaguanLabs/glossia/cache"
//	    "github.com/ZaguanLabs/glossia/detect"
//	    "github.com/ZaguanLabs/glossia/provider"
//	)
//
//	func main() {
//	    // Create the completion capability
//	    c := provider.NewOpenAICompleter(provider.OpenAIConfig{
//	        BaseURL: "http://localhost:8000/v1",
//	        APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    // Create the translation service
//	    svc := glossia.NewService(c,
//	        glossia.WithCache(cache.NewInMemoryCache(3600)),
//	        glossia.WithDetector(detect.New()),
//	    )
//
//	    // Translate text
//	    text, _, err := svc.Translate(context.Background(), "Hello World", glossia.TranslationConfig{
//	        TargetLanguage: glossia.LanguageFrench,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(text) // Bonjour le monde
//	}
package glossia
