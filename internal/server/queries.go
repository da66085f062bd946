package server

// SQL constants aligned with the generator's schema (items, relationships,
// coverage, orphans, meta, stats_type_counts).

const itemColumns = `id, type, title, description, labels, status, created_at, updated_at, author, assignee, url`

const queryItems = `
SELECT ` + itemColumns + ` FROM items ORDER BY type, id LIMIT ?
`

const queryItemsByType = `
SELECT ` + itemColumns + ` FROM items WHERE type = ? ORDER BY id LIMIT ?
`

const queryItemByID = `
SELECT ` + itemColumns + ` FROM items WHERE id = ?
`

const queryRelationships = `
SELECT from_id, from_type, to_id, to_type, kind FROM relationships ORDER BY from_id, to_id
`

const querySearch = `
SELECT ` + itemColumns + ` FROM items
WHERE id LIKE ? OR title LIKE ? OR description LIKE ?
ORDER BY type, id LIMIT ?
`

const neighborItemColumns = `i.id, i.type, i.title, i.description, i.labels, i.status, i.created_at, i.updated_at, i.author, i.assignee, i.url`

const queryNeighborhood = `
SELECT 'incoming' AS direction, ` + neighborItemColumns + `
FROM relationships r JOIN items i ON i.id = r.from_id
WHERE r.to_id = ?
UNION ALL
SELECT 'outgoing' AS direction, ` + neighborItemColumns + `
FROM relationships r JOIN items i ON i.id = r.to_id
WHERE r.from_id = ?
ORDER BY direction, id
LIMIT ?
`

const queryCoverageMetrics = `SELECT metric, value FROM coverage`
const queryOrphans = `SELECT item_id FROM orphans ORDER BY item_id`
const queryTypeCounts = `SELECT type, count FROM stats_type_counts`
const queryMeta = `SELECT key, value FROM meta`
