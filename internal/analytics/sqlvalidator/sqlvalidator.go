// Package sqlvalidator implements the SQL validator, the defense-in-depth SQL
// security gate every generated query must pass before execution:
// a PostgreSQL AST parse (grounded in database_query.go's
// SQLSecurityValidator), a forbidden-keyword and table-whitelist
// check, suspicious-pattern detection, and LIMIT sanitization.
package sqlvalidator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// forbiddenKeywords blocks DDL/DML, procedural execution, and
// comment-injection vectors. Checked in list order; the first match
// is the one reported.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "MERGE", "REPLACE",
	"CREATE", "ALTER", "DROP", "TRUNCATE", "RENAME",
	"EXEC", "EXECUTE", "CALL", "DO",
	"UNION", "INTO", "OUTFILE", "DUMPFILE",
	"--", "/*", "*/", "#",
	"IF", "CASE", "WHILE", "LOOP",
	"LOAD_FILE", "PG_READ_FILE", "PG_LS_DIR",
}

var wordKeywordPattern = regexp.MustCompile(`^[A-Z_]+$`)

// suspiciousPatterns catch classic injection shapes even when every
// individual keyword is individually benign.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);.*\b(DROP|DELETE|UPDATE|INSERT)\b`),
	regexp.MustCompile(`(?i)\b(AND|OR)\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)'.*\bOR\b.*'`),
	regexp.MustCompile(`(?i)\bUNION\b.*\bSELECT\b`),
	regexp.MustCompile(`(?i)\bEXEC\b.*\(`),
	regexp.MustCompile(`(?i)['"].*\\\\'`),
}

var hasLimitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)
var isAggregatedPattern = regexp.MustCompile(`(?i)\b(GROUP\s+BY|COUNT|SUM|AVG|MAX|MIN)\b`)

// DefaultAllowedTables is the warehouse whitelist when no override is
// configured; analytics.allowed_tables widens it to the segment and
// extended-metrics tables.
var DefaultAllowedTables = []string{"monthly_kpis"}

const defaultRowLimit = 1000

// Validator is the SQL validator SQL security gate, safe for concurrent use.
type Validator struct {
	allowedTables map[string]bool
	rowLimit      int
}

// New constructs a Validator over the given table whitelist, falling
// back to DefaultAllowedTables when empty.
func New(allowedTables []string) *Validator {
	if len(allowedTables) == 0 {
		allowedTables = DefaultAllowedTables
	}
	tables := make(map[string]bool, len(allowedTables))
	for _, t := range allowedTables {
		tables[strings.ToLower(t)] = true
	}
	return &Validator{allowedTables: tables, rowLimit: defaultRowLimit}
}

// Validate runs the full the SQL validator pipeline: keyword blacklist, PostgreSQL
// AST parse and structural checks, table whitelist, suspicious
// pattern detection, then LIMIT sanitization.
func (v *Validator) Validate(ctx context.Context, sql string) types.ValidationResult {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return types.ValidationResult{Valid: false, ErrorMessage: "empty SQL query"}
	}

	upper := strings.ToUpper(trimmed)

	if kw := firstForbiddenKeyword(upper); kw != "" {
		logger.Warn(ctx, "sqlvalidator.forbidden_keyword", "keyword", kw)
		return types.ValidationResult{Valid: false, ErrorMessage: fmt.Sprintf("forbidden keyword detected: %s", kw)}
	}

	if !strings.HasPrefix(upper, "SELECT") {
		return types.ValidationResult{Valid: false, ErrorMessage: "only SELECT queries are allowed"}
	}

	tablesUsed, astErr := v.validateAST(trimmed)
	if astErr != nil {
		logger.Warn(ctx, "sqlvalidator.ast_rejected", "error", astErr.Error())
		return types.ValidationResult{Valid: false, ErrorMessage: astErr.Error()}
	}

	var invalidTables []string
	for t := range tablesUsed {
		if !v.allowedTables[t] {
			invalidTables = append(invalidTables, t)
		}
	}
	if len(invalidTables) > 0 {
		logger.Warn(ctx, "sqlvalidator.invalid_tables", "tables", invalidTables)
		return types.ValidationResult{
			Valid:        false,
			ErrorMessage: fmt.Sprintf("invalid tables: %s", strings.Join(invalidTables, ", ")),
		}
	}

	if m := suspiciousMatch(trimmed); m != "" {
		logger.Warn(ctx, "sqlvalidator.suspicious_pattern", "pattern", m)
		return types.ValidationResult{Valid: false, ErrorMessage: fmt.Sprintf("suspicious pattern detected: %s", m)}
	}

	sanitized, warnings := v.sanitize(trimmed)
	return types.ValidationResult{Valid: true, SanitizedSQL: sanitized, Warnings: warnings}
}

func firstForbiddenKeyword(upperSQL string) string {
	for _, kw := range forbiddenKeywords {
		if wordKeywordPattern.MatchString(kw) {
			pattern := `\b` + regexp.QuoteMeta(kw) + `\b`
			if regexp.MustCompile(pattern).MatchString(upperSQL) {
				return kw
			}
			continue
		}
		if strings.Contains(upperSQL, kw) {
			return kw
		}
	}
	return ""
}

func suspiciousMatch(sql string) string {
	for _, p := range suspiciousPatterns {
		if m := p.FindString(sql); m != "" {
			if len(m) > 50 {
				m = m[:50]
			}
			return m
		}
	}
	return ""
}

// sanitize appends LIMIT 1000 to unbounded, non-aggregated queries.
func (v *Validator) sanitize(sql string) (string, []string) {
	var warnings []string
	if hasLimitPattern.MatchString(sql) || isAggregatedPattern.MatchString(sql) {
		return sql, warnings
	}
	sanitized := sql
	limitClause := fmt.Sprintf(" LIMIT %d", v.rowLimit)
	if strings.HasSuffix(sanitized, ";") {
		sanitized = sanitized[:len(sanitized)-1] + limitClause + ";"
	} else {
		sanitized += limitClause
	}
	warnings = append(warnings, fmt.Sprintf("added LIMIT %d to unbounded query", v.rowLimit))
	return sanitized, warnings
}

// validateAST parses sql with PostgreSQL's own grammar and walks the
// tree rejecting CTEs, subqueries, compound SELECTs, locking clauses,
// and schema-qualified or disallowed function calls — the same
// structural defense database_query.go applies to agent-issued SQL,
// generalized here for analytics-generated SQL over the KPI warehouse.
func (v *Validator) validateAST(sql string) (map[string]bool, error) {
	if strings.Contains(sql, "\x00") {
		return nil, fmt.Errorf("invalid character in SQL query")
	}
	if len(sql) > 8192 {
		return nil, fmt.Errorf("SQL query too long")
	}

	parsed, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("SQL parse error: %v", err)
	}
	if len(parsed.Stmts) == 0 {
		return nil, fmt.Errorf("empty query")
	}
	if len(parsed.Stmts) > 1 {
		return nil, fmt.Errorf("multiple statements are not allowed")
	}

	selectStmt := parsed.Stmts[0].Stmt.GetSelectStmt()
	if selectStmt == nil {
		return nil, fmt.Errorf("only SELECT queries are allowed")
	}
	if selectStmt.Op != pg_query.SetOperation_SETOP_NONE {
		return nil, fmt.Errorf("compound queries (UNION/INTERSECT/EXCEPT) are not allowed")
	}
	if selectStmt.WithClause != nil {
		return nil, fmt.Errorf("WITH clause (CTEs) is not allowed")
	}
	if selectStmt.IntoClause != nil {
		return nil, fmt.Errorf("SELECT INTO is not allowed")
	}
	if len(selectStmt.LockingClause) > 0 {
		return nil, fmt.Errorf("locking clauses are not allowed")
	}

	tables := make(map[string]bool)
	for _, item := range selectStmt.FromClause {
		if err := v.walkFromItem(item, tables); err != nil {
			return nil, err
		}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no table referenced in query")
	}
	for _, target := range selectStmt.TargetList {
		if err := walkNode(target); err != nil {
			return nil, err
		}
	}
	if selectStmt.WhereClause != nil {
		if err := walkNode(selectStmt.WhereClause); err != nil {
			return nil, err
		}
	}
	for _, g := range selectStmt.GroupClause {
		if err := walkNode(g); err != nil {
			return nil, err
		}
	}
	if selectStmt.HavingClause != nil {
		if err := walkNode(selectStmt.HavingClause); err != nil {
			return nil, err
		}
	}
	for _, s := range selectStmt.SortClause {
		if err := walkNode(s); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (v *Validator) walkFromItem(node *pg_query.Node, tables map[string]bool) error {
	if node == nil {
		return nil
	}
	if rv := node.GetRangeVar(); rv != nil {
		if rv.Schemaname != "" && strings.ToLower(rv.Schemaname) != "public" {
			return fmt.Errorf("access to schema '%s' is not allowed", rv.Schemaname)
		}
		tables[strings.ToLower(rv.Relname)] = true
		return nil
	}
	if je := node.GetJoinExpr(); je != nil {
		if err := v.walkFromItem(je.Larg, tables); err != nil {
			return err
		}
		if err := v.walkFromItem(je.Rarg, tables); err != nil {
			return err
		}
		if je.Quals != nil {
			return walkNode(je.Quals)
		}
		return nil
	}
	if node.GetRangeSubselect() != nil {
		return fmt.Errorf("subqueries in FROM clause are not allowed")
	}
	if node.GetRangeFunction() != nil {
		return fmt.Errorf("functions in FROM clause are not allowed")
	}
	return nil
}

// allowedFunctions mirrors database_query.go's aggregate/scalar
// whitelist; anything outside it is rejected as an unknown surface.
var allowedFunctions = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"coalesce": true, "nullif": true, "greatest": true, "least": true,
	"abs": true, "round": true, "floor": true, "ceil": true,
	"lower": true, "upper": true, "trim": true,
	"date_trunc": true, "extract": true, "to_char": true, "date_part": true,
}

func walkNode(node *pg_query.Node) error {
	if node == nil {
		return nil
	}
	if node.GetSubLink() != nil {
		return fmt.Errorf("subqueries are not allowed")
	}
	if fc := node.GetFuncCall(); fc != nil {
		name := ""
		if len(fc.Funcname) > 0 {
			if s := fc.Funcname[len(fc.Funcname)-1].GetString_(); s != nil {
				name = strings.ToLower(s.Sval)
			}
		}
		if name != "" && !allowedFunctions[name] {
			return fmt.Errorf("function not allowed: %s", name)
		}
		for _, arg := range fc.Args {
			if err := walkNode(arg); err != nil {
				return err
			}
		}
		return nil
	}
	if ae := node.GetAExpr(); ae != nil {
		if err := walkNode(ae.Lexpr); err != nil {
			return err
		}
		return walkNode(ae.Rexpr)
	}
	if be := node.GetBoolExpr(); be != nil {
		for _, arg := range be.Args {
			if err := walkNode(arg); err != nil {
				return err
			}
		}
		return nil
	}
	if nt := node.GetNullTest(); nt != nil {
		return walkNode(nt.Arg)
	}
	if ce := node.GetCoalesceExpr(); ce != nil {
		for _, arg := range ce.Args {
			if err := walkNode(arg); err != nil {
				return err
			}
		}
		return nil
	}
	if caseExpr := node.GetCaseExpr(); caseExpr != nil {
		if err := walkNode(caseExpr.Arg); err != nil {
			return err
		}
		for _, when := range caseExpr.Args {
			if err := walkNode(when); err != nil {
				return err
			}
		}
		return walkNode(caseExpr.Defresult)
	}
	return nil
}
