package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Yellow = "\033[33m"

	// Bright variants for more color variety
	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"

	Red       = "\033[31m"
	BrightRed = "\033[91m"
)

// Cache-related log prefixes
const (
	LogCacheInit  = Blue + "[Cache:Init]" + Reset
	LogCache      = Blue + "[Cache]" + Reset
	LogCacheClear = Blue + "[Cache:Clear]" + Reset
	LogCacheEvict = Blue + "[Cache:Evict]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// providerColors rotate by name hash so each provider keeps its color
var providerColors = []string{
	Green, Blue, Purple, Cyan,
	BrightGreen, BrightBlue, BrightMagenta, BrightCyan,
}

// Provider returns a colored "[Provider:name]" prefix.
// Same provider name always gets the same color.
func Provider(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	color := providerColors[hash%len(providerColors)]
	return color + "[Provider:" + name + "]" + Reset
}

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
	LogHTTP   = Cyan + "[HTTP]" + Reset

	LogNotifier = BrightRed + "[Notifier]" + Reset
)

// Resolver log prefixes
const (
	LogOrchestrator = Green + "[Orchestrator]" + Reset
	LogPreload      = Cyan + "[Preload]" + Reset
	LogSelect       = Green + "[Select]" + Reset
	LogStale        = Yellow + "[Stale]" + Reset
	LogNotFound     = Yellow + "[NotFound]" + Reset
	LogSync         = BrightCyan + "[Sync]" + Reset
)

// Provider service log prefixes
const (
	LogSearch         = Blue + "[Search]" + Reset
	LogMatch          = Green + "[Match]" + Reset
	LogDurationFilter = Cyan + "[Duration Filter]" + Reset
	LogMirror         = Cyan + "[Mirror]" + Reset
	LogIndex          = Blue + "[Index]" + Reset
	LogParser         = Cyan + "[Parser]" + Reset
	LogTTMLParser     = Cyan + "[TTML Parser]" + Reset
	LogWarning        = Red + "[Warning]" + Reset
)
