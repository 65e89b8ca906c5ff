package application

// LedgerService 聚合命令与查询两侧，供接口层使用
type LedgerService struct {
	*LedgerCommandService
	*LedgerQueryService
}

// NewLedgerService 创建聚合服务
func NewLedgerService(command *LedgerCommandService, query *LedgerQueryService) *LedgerService {
	return &LedgerService{
		LedgerCommandService: command,
		LedgerQueryService:   query,
	}
}
