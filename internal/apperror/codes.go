package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Market data and symbol errors
const (
	// Symbol resolution
	CodeSymbolResolutionFailed Code = "SYMBOL_RESOLUTION_FAILED"
	CodeAmbiguousSymbol        Code = "AMBIGUOUS_SYMBOL"
	CodeInvalidToken           Code = "INVALID_TOKEN"
	CodeUnknownQuoteCurrency   Code = "UNKNOWN_QUOTE_CURRENCY"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Exchange errors
	CodeExchangeConnectionFailed Code = "EXCHANGE_CONNECTION_FAILED"
	CodeExchangeAPIError         Code = "EXCHANGE_API_ERROR"
	CodeExchangeRateLimited      Code = "EXCHANGE_RATE_LIMITED"
	CodeOrderbookFetchFailed     Code = "ORDERBOOK_FETCH_FAILED"
	CodeInvalidOrderbook         Code = "INVALID_ORDERBOOK"
	CodeStaleMarketData          Code = "STALE_MARKET_DATA"

	// Graph construction
	CodeGraphBuildFailed    Code = "GRAPH_BUILD_FAILED"
	CodeExcessiveSpread     Code = "EXCESSIVE_SPREAD"
	CodeRelationshipMissing Code = "RELATIONSHIP_MISSING"
)

// Detection and execution errors
const (
	// Path discovery
	CodePathDiscoveryFailed Code = "PATH_DISCOVERY_FAILED"
	CodeInvalidPath         Code = "INVALID_PATH"
	CodePathNotClosed       Code = "PATH_NOT_CLOSED"
	CodeExchangeMismatch    Code = "EXCHANGE_MISMATCH"

	// Profit calculation
	CodeProfitCalculationFailed Code = "PROFIT_CALCULATION_FAILED"
	CodeDepthAnalysisFailed     Code = "DEPTH_ANALYSIS_FAILED"
	CodeFeeQueryFailed          Code = "FEE_QUERY_FAILED"
	CodeInsufficientLiquidity   Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidTradeSize        Code = "INVALID_TRADE_SIZE"

	// Risk checks
	CodeRiskRejected       Code = "RISK_REJECTED"
	CodeRiskServiceFailed  Code = "RISK_SERVICE_FAILED"
	CodeProfitBelowMinimum Code = "PROFIT_BELOW_MINIMUM"
	CodeOpportunityExpired Code = "OPPORTUNITY_EXPIRED"

	// Execution
	CodeExecutionFailed    Code = "EXECUTION_FAILED"
	CodeLegExecutionFailed Code = "LEG_EXECUTION_FAILED"
	CodeOrderRejected      Code = "ORDER_REJECTED"
	CodeExecutionTimeout   Code = "EXECUTION_TIMEOUT"

	// Rollback
	CodeRollbackFailed     Code = "ROLLBACK_FAILED"
	CodeRollbackIncomplete Code = "ROLLBACK_INCOMPLETE"

	// Cache errors
	CodeCacheMiss    Code = "CACHE_MISS"
	CodeCacheExpired Code = "CACHE_EXPIRED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
