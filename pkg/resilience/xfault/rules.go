package xfault

import "strings"

// Service 标识远程服务类型，用于选择专属错误码表。
type Service string

// 已知服务。
const (
	ServiceGeneric      Service = "generic"
	ServiceObjectStore  Service = "objectstore"
	ServiceDocumentDB   Service = "documentdb"
	ServiceNotification Service = "notification"
	ServiceEventBus     Service = "eventbus"
)

// ParseService 解析服务名（大小写不敏感），空字符串返回 ServiceGeneric。
func ParseService(s string) (Service, bool) {
	switch Service(strings.ToLower(strings.TrimSpace(s))) {
	case "", ServiceGeneric:
		return ServiceGeneric, true
	case ServiceObjectStore:
		return ServiceObjectStore, true
	case ServiceDocumentDB:
		return ServiceDocumentDB, true
	case ServiceNotification:
		return ServiceNotification, true
	case ServiceEventBus:
		return ServiceEventBus, true
	default:
		return ServiceGeneric, false
	}
}

// Rule 是一条错误码规则。
type Rule struct {
	Category  Category
	Retryable bool
}

func rule(c Category) Rule {
	return Rule{Category: c, Retryable: c.Retryable()}
}

// ruleTable 键为小写的错误名/错误码。
type ruleTable map[string]Rule

func (t ruleTable) lookup(keys ...string) (Rule, string, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if r, ok := t[strings.ToLower(k)]; ok {
			return r, k, true
		}
	}
	return Rule{}, "", false
}

// commonRules 适用于所有服务，在服务专属表之后查找。
var commonRules = ruleTable{
	"accessdenied":                rule(CategoryAuthorization),
	"accessdeniedexception":       rule(CategoryAuthorization),
	"unauthorizedexception":       rule(CategoryAuthorization),
	"unauthorized":                rule(CategoryAuthorization),
	"forbidden":                   rule(CategoryAuthorization),
	"permissiondenied":            rule(CategoryAuthorization),
	"unrecognizedclientexception": rule(CategoryAuthorization),
	"validationexception":         rule(CategoryValidation),
	"validationerror":             rule(CategoryValidation),
	"invalidargument":             rule(CategoryValidation),
	"invalidparameter":            rule(CategoryValidation),
	"invalidparametervalue":       rule(CategoryValidation),
	"notfound":                    rule(CategoryResourceNotFound),
	"resourcenotfoundexception":   rule(CategoryResourceNotFound),
	"throttlingexception":         rule(CategoryRateLimit),
	"throttling":                  rule(CategoryRateLimit),
	"toomanyrequestsexception":    rule(CategoryRateLimit),
	"requestlimitexceeded":        rule(CategoryRateLimit),
	"resourceexhausted":           rule(CategoryRateLimit),
	"serviceunavailable":          rule(CategoryTransient),
	"serviceunavailableexception": rule(CategoryTransient),
	"unavailable":                 rule(CategoryTransient),
	"deadlineexceeded":            rule(CategoryTransient),
	"timeouterror":                rule(CategoryTransient),
	"networkerror":                rule(CategoryTransient),
	"internalservererror":         rule(CategorySystem),
	"internalfailure":             rule(CategorySystem),
	"internalerror":               rule(CategorySystem),
	"internal":                    rule(CategorySystem),
	"canceled":                    {Category: CategorySystem, Retryable: false},
}

// serviceRules 各服务专属表。
var serviceRules = map[Service]ruleTable{
	ServiceObjectStore: {
		"nosuchkey":             rule(CategoryResourceNotFound),
		"nosuchbucket":          rule(CategoryResourceNotFound),
		"nosuchupload":          rule(CategoryResourceNotFound),
		"entitytoolarge":        rule(CategoryValidation),
		"entitytoosmall":        rule(CategoryValidation),
		"invalidobjectstate":    rule(CategoryValidation),
		"invaliddigest":         rule(CategoryValidation),
		"baddigest":             rule(CategoryValidation),
		"keytoolongerror":       rule(CategoryValidation),
		"failedprecondition":    rule(CategoryValidation),
		"alreadyexists":         rule(CategoryValidation),
		"slowdown":              rule(CategoryRateLimit),
		"requesttimeout":        rule(CategoryTransient),
		"internalerror":         rule(CategoryTransient),
		"invalidaccesskeyid":    rule(CategoryAuthorization),
		"signaturedoesnotmatch": rule(CategoryAuthorization),
		"expiredtoken":          rule(CategoryAuthorization),
	},
	ServiceDocumentDB: {
		"provisionedthroughputexceededexception":   rule(CategoryRateLimit),
		"requestlimitexceeded":                     rule(CategoryRateLimit),
		"conditionalcheckfailedexception":          rule(CategoryValidation),
		"itemcollectionsizelimitexceededexception": rule(CategoryValidation),
		"transactionconflictexception":             rule(CategoryTransient),
		"transactioncanceledexception":             rule(CategoryTransient),
		"writeconflict":                            rule(CategoryTransient),
		"notwritableprimary":                       rule(CategoryTransient),
		"primarysteppeddown":                       rule(CategoryTransient),
		"hostunreachable":                          rule(CategoryTransient),
		"hostnotfound":                             rule(CategoryTransient),
		"networktimeout":                           rule(CategoryTransient),
		"exceededtimelimit":                        rule(CategoryTransient),
		"interruptedatshutdown":                    rule(CategoryTransient),
		"duplicatekey":                             rule(CategoryValidation),
		"documentvalidationfailure":                rule(CategoryValidation),
		"namespacenotfound":                        rule(CategoryResourceNotFound),
		"nomatchingdocument":                       rule(CategoryResourceNotFound),
		"authenticationfailed":                     rule(CategoryAuthorization),
	},
	ServiceNotification: {
		"throttled":                   rule(CategoryRateLimit),
		"throttledexception":          rule(CategoryRateLimit),
		"kmsthrottling":               rule(CategoryRateLimit),
		"kmsthrottlingexception":      rule(CategoryRateLimit),
		"endpointdisabled":            rule(CategoryValidation),
		"endpointdisabledexception":   rule(CategoryValidation),
		"invalidparameterexception":   rule(CategoryValidation),
		"messagerejected":             rule(CategoryValidation),
		"authorizationerror":          rule(CategoryAuthorization),
		"authorizationerrorexception": rule(CategoryAuthorization),
		"notfoundexception":           rule(CategoryResourceNotFound),
		"internalerrorexception":      rule(CategorySystem),
	},
	ServiceEventBus: {
		"internalexception":      rule(CategoryTransient),
		"internalfailure":        rule(CategoryTransient),
		"putfailed":              rule(CategoryTransient),
		"limitexceededexception": rule(CategoryRateLimit),
		"queuefull":              rule(CategoryRateLimit),
		"messagetoolarge":        rule(CategoryValidation),
		"malformeddetail":        rule(CategoryValidation),
		"invalidargument":        rule(CategoryValidation),
		"topicnotfound":          rule(CategoryResourceNotFound),
		"producerclosed":         {Category: CategorySystem, Retryable: false},
	},
}

// retryPatterns 通用重试特征子串，匹配小写的 name + message。
var retryPatterns = []string{
	"throttl",
	"timeout",
	"timed out",
	"network",
	"connection",
	"unavailable",
	"internal server error",
	"provisioned throughput exceeded",
	"provisionedthroughputexceeded",
}
