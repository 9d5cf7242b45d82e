package pgxstore

import (
	"fmt"

	"github.com/screwyprof/sortition/web/sortition"
)

const (
	baseNominationsQuery = "SELECT tx_hash, log_index, block_number, block_hash, block_timestamp, term_number, nominator, pixels FROM nominations"
)

// NominationsQueryBuilder builds the paged nominations query
type NominationsQueryBuilder struct {
	sql  string
	args []any
}

func NewNominationsQuery() *NominationsQueryBuilder {
	return &NominationsQueryBuilder{
		sql: baseNominationsQuery,
	}
}

// ForCriteria applies filter, ordering and pagination in one call
func (q *NominationsQueryBuilder) ForCriteria(criteria sortition.NominationsCriteria) *NominationsQueryBuilder {
	return q.
		filterByNominator(criteria.Nominator).
		orderNewestFirst().
		paginateWithDetection(criteria)
}

func (q *NominationsQueryBuilder) filterByNominator(n sortition.Nominator) *NominationsQueryBuilder {
	if n != "" {
		q.addWhereCondition("nominator = $%d", n.String())
	}
	return q
}

// orderNewestFirst matches the (block_number DESC, log_index DESC) indexes
func (q *NominationsQueryBuilder) orderNewestFirst() *NominationsQueryBuilder {
	q.sql += " ORDER BY block_number DESC, log_index DESC"
	return q
}

// paginateWithDetection asks for one extra row to learn whether a next page exists
func (q *NominationsQueryBuilder) paginateWithDetection(criteria sortition.NominationsCriteria) *NominationsQueryBuilder {
	q.addParameter("LIMIT $%d", criteria.ItemsPerPage()+1)

	if offset := criteria.ItemsToSkip(); offset > 0 {
		q.addParameter("OFFSET $%d", offset)
	}

	return q
}

// Build returns the final SQL query and arguments
func (q *NominationsQueryBuilder) Build() (string, []any) {
	return q.sql, q.args
}

func (q *NominationsQueryBuilder) addWhereCondition(sqlClause string, value any) {
	keyword := " WHERE "
	if len(q.args) > 0 {
		keyword = " AND "
	}
	q.sql += keyword + fmt.Sprintf(sqlClause, q.nextPlaceholder())
	q.args = append(q.args, value)
}

func (q *NominationsQueryBuilder) addParameter(sqlClause string, value any) {
	q.sql += " " + fmt.Sprintf(sqlClause, q.nextPlaceholder())
	q.args = append(q.args, value)
}

func (q *NominationsQueryBuilder) nextPlaceholder() int {
	return len(q.args) + 1
}
