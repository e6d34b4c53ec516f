package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Symbol resolution
	CodeSymbolResolutionFailed: "Failed to resolve symbol into currency pair",
	CodeAmbiguousSymbol:        "Symbol resolution is ambiguous",
	CodeInvalidToken:           "Invalid currency token",
	CodeUnknownQuoteCurrency:   "Quote currency not recognized",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Exchange errors
	CodeExchangeConnectionFailed: "Failed to connect to exchange",
	CodeExchangeAPIError:         "Exchange API error",
	CodeExchangeRateLimited:      "Exchange rate limit exceeded",
	CodeOrderbookFetchFailed:     "Failed to fetch orderbook",
	CodeInvalidOrderbook:         "Invalid orderbook data",
	CodeStaleMarketData:          "Market data is stale",

	// Graph construction
	CodeGraphBuildFailed:    "Failed to build relationship graph",
	CodeExcessiveSpread:     "Bid/ask spread exceeds sanity threshold",
	CodeRelationshipMissing: "Currency relationship not present in graph",

	// Path discovery
	CodePathDiscoveryFailed: "Triangular path discovery failed",
	CodeInvalidPath:         "Invalid triangular path",
	CodePathNotClosed:       "Path does not return to start currency",
	CodeExchangeMismatch:    "Path legs span more than one exchange",

	// Profit calculation
	CodeProfitCalculationFailed: "Profit calculation failed",
	CodeDepthAnalysisFailed:     "Order book depth analysis failed",
	CodeFeeQueryFailed:          "Fee rate query failed",
	CodeInsufficientLiquidity:   "Insufficient liquidity for trade size",
	CodeInvalidTradeSize:        "Invalid trade size",

	// Risk checks
	CodeRiskRejected:       "Opportunity rejected by risk checks",
	CodeRiskServiceFailed:  "Risk assessment service failed",
	CodeProfitBelowMinimum: "Net profit below configured minimum",
	CodeOpportunityExpired: "Opportunity expired before execution",

	// Execution
	CodeExecutionFailed:    "Execution failed",
	CodeLegExecutionFailed: "Trade leg execution failed",
	CodeOrderRejected:      "Order rejected by venue",
	CodeExecutionTimeout:   "Execution exceeded deadline",

	// Rollback
	CodeRollbackFailed:     "Compensating rollback failed",
	CodeRollbackIncomplete: "Rollback completed with residual position",

	// Cache errors
	CodeCacheMiss:    "Cache miss",
	CodeCacheExpired: "Cache entry expired",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
