package store

import sq "github.com/Masterminds/squirrel"

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

const defaultPageSize = 10

// paginate turns a 1-based page and a limit into limit/offset.
func paginate(page, limit uint64) (uint64, uint64) {
	if limit == 0 || limit > 100 {
		limit = defaultPageSize
	}
	if page == 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
