package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Namer namer interface
type Namer interface {
	TableName(model string) string
	ForeignKeyName(attribute string) string
	LinkName(owner, ref string) string
	RelatedName(ownerTable string) string
}

// NamingStrategy tables, columns naming strategy
type NamingStrategy struct {
	TablePrefix string
	// SnakeCase converts MemberGroup to member_group instead of membergroup
	SnakeCase bool
	// PluralTable converts Member to members
	PluralTable bool
}

// TableName convert model name to table name
func (ns NamingStrategy) TableName(model string) string {
	var name string
	if ns.SnakeCase {
		name = toDBName(model)
	} else {
		name = cases.Lower(language.Und).String(model)
	}
	if ns.PluralTable {
		name = inflection.Plural(name)
	}
	return ns.TablePrefix + name
}

// ForeignKeyName column holding a many-to-one reference
func (ns NamingStrategy) ForeignKeyName(attribute string) string {
	return attribute + "_id"
}

// LinkName model name of a generated many-to-many link
func (ns NamingStrategy) LinkName(owner, ref string) string {
	return fmt.Sprintf("%s%sLink", owner, ref)
}

// RelatedName default reverse accessor name, the plural of the owner table
func (ns NamingStrategy) RelatedName(ownerTable string) string {
	return inflection.Plural(strings.TrimPrefix(ownerTable, ns.TablePrefix))
}

var (
	smap sync.Map
	// https://github.com/golang/lint/blob/master/lint.go#L770
	commonInitialisms         = []string{"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM", "XML", "XSRF", "XSS"}
	commonInitialismsReplacer *strings.Replacer
)

func init() {
	title := cases.Title(language.Und)
	var commonInitialismsForReplacer []string
	for _, initialism := range commonInitialisms {
		commonInitialismsForReplacer = append(commonInitialismsForReplacer, initialism, title.String(initialism))
	}
	commonInitialismsReplacer = strings.NewReplacer(commonInitialismsForReplacer...)
}

func toDBName(name string) string {
	if name == "" {
		return ""
	} else if v, ok := smap.Load(name); ok {
		return v.(string)
	}

	var (
		value                          = commonInitialismsReplacer.Replace(name)
		buf                            strings.Builder
		lastCase, nextCase, nextNumber bool // upper case == true
		curCase                        = value[0] <= 'Z' && value[0] >= 'A'
	)

	for i, v := range value[:len(value)-1] {
		nextCase = value[i+1] <= 'Z' && value[i+1] >= 'A'
		nextNumber = value[i+1] >= '0' && value[i+1] <= '9'

		if curCase {
			if lastCase && (nextCase || nextNumber) {
				buf.WriteRune(v + 32)
			} else {
				if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
					buf.WriteByte('_')
				}
				buf.WriteRune(v + 32)
			}
		} else {
			buf.WriteRune(v)
		}

		lastCase = curCase
		curCase = nextCase
	}

	if curCase {
		if !lastCase && len(value) > 1 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[len(value)-1] + 32)
	} else {
		buf.WriteByte(value[len(value)-1])
	}

	result := buf.String()
	smap.Store(name, result)
	return result
}
